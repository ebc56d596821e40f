package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lwneal/cinematic-generator/pipeline"
)

var genOpts pipeline.Options

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Only generate the story JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := pipeline.NewDeps(cfg, true)
		if err != nil {
			return err
		}
		opts := genOpts.WithDefaults(time.Now(), uuid.NewString()[:8], cfg.Paths.Output)
		_, err = pipeline.New(cfg, deps).Generate(cmd.Context(), opts)
		return err
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.StoryJSON, "story-json", "", "file the story JSON is written to (default story_<unix>_<id>.json)")
	f.StringVar(&genOpts.PremisePath, "premise", "", "YAML premise file (default: the Battle of Antietam)")
	f.IntVar(&genOpts.Scenes, "scenes", 0, "number of scenes (default story.num_scenes)")
}
