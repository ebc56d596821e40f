package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lwneal/cinematic-generator/pipeline"
)

var asmOpts = pipeline.Options{SkipGenerate: true}

var assembleCmd = &cobra.Command{
	Use:     "assemble",
	Short:   "Build the video from an existing story JSON",
	Example: "  cinematic assemble --story-json story_1700000000.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := pipeline.NewDeps(cfg, false)
		if err != nil {
			return err
		}
		_, err = pipeline.New(cfg, deps).Run(cmd.Context(), asmOpts)
		return err
	},
}

func init() {
	f := assembleCmd.Flags()
	f.StringVar(&asmOpts.StoryJSON, "story-json", "", "story JSON to read")
	f.StringVar(&asmOpts.OutputVideo, "output-video", "", "final video file (default story_<unix>_<run-id>.mp4)")
	f.StringVar(&asmOpts.PremisePath, "premise", "", "premise the story was written from, for upload metadata")
	f.StringVar(&asmOpts.RunID, "run-id", "", "resume an earlier run, reusing its finished scenes")
	assembleCmd.MarkFlagRequired("story-json")
}
