package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lwneal/cinematic-generator/pipeline"
)

var runOpts pipeline.Options

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a story and assemble its video",
	Example: "  cinematic run --premise premise.yaml --scenes 12\n" +
		"  cinematic run --run-id 1a2b3c4d",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := pipeline.NewDeps(cfg, true)
		if err != nil {
			return err
		}
		_, err = pipeline.New(cfg, deps).Run(cmd.Context(), runOpts)
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.StoryJSON, "story-json", "", "file the story JSON is written to (default story_<unix>_<run-id>.json)")
	f.StringVar(&runOpts.OutputVideo, "output-video", "", "final video file (default story_<unix>_<run-id>.mp4)")
	f.StringVar(&runOpts.PremisePath, "premise", "", "YAML premise file (default: the Battle of Antietam)")
	f.IntVar(&runOpts.Scenes, "scenes", 0, "number of scenes (default story.num_scenes)")
	f.StringVar(&runOpts.RunID, "run-id", "", "resume an earlier run from its saved state, reusing its finished scenes")
}
