package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lwneal/cinematic-generator/media"
)

var fixAudioCmd = &cobra.Command{
	Use:   "fix-audio <input> <output>",
	Short: "Re-encode a video's audio track to AAC from a clean PCM decode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := media.NewFFmpeg(cfg.Pipeline.FFmpegBinary, cfg.Pipeline.FFprobeBinary, cfg.Pipeline.MediaTimeout)
		if err := media.FixAudio(cmd.Context(), p, args[0], args[1]); err != nil {
			return err
		}
		log.WithField("stage", "fix-audio").Infof("✅ Wrote %s", args[1])
		return nil
	},
}
