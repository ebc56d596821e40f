package story

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Premise is the seed a story is grown from
type Premise struct {
	Title      string `yaml:"title"`
	Topic      string `yaml:"topic"`
	Background string `yaml:"background"`
	// FirstLine optionally seeds the dialogue of scene 1.
	FirstLine string `yaml:"first_line"`
}

// DefaultPremise is used when no premise file is given
var DefaultPremise = Premise{
	Title: "History of the World: The Battle of Antietam",
	Topic: "the Battle of Antietam",
	Background: `The Battle of Antietam, or Battle of Sharpsburg, was a battle of the American Civil War fought on September 17, 1862, between Confederate Gen. Robert E. Lee's Army of Northern Virginia and Union Gen. George B. McClellan's Army of the Potomac near Sharpsburg, Maryland and Antietam Creek. It remains the bloodiest day in American history, with a combined tally of 22,717 dead, wounded, or missing. Although the Union army suffered heavier casualties than the Confederates, the battle was a major turning point in the Union's favor, and its result gave Lincoln the political confidence to issue the Emancipation Proclamation.`,
}

// LoadPremise reads a YAML premise file
func LoadPremise(path string) (Premise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Premise{}, err
	}
	var p Premise
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Premise{}, fmt.Errorf("parse premise %s: %w", path, err)
	}
	if strings.TrimSpace(p.Title) == "" {
		return Premise{}, errors.New("premise has no title")
	}
	if p.Topic == "" {
		p.Topic = p.Title
	}
	return p, nil
}

// Delimiter opens and closes every scene block; it is also the stop sequence.
const Delimiter = "```"

// InitialPrompt frames the story and leaves an open block for scene 1 so the
// model continues with the first dialogue line and its art prompt.
func InitialPrompt(p Premise, numScenes int) string {
	var sb strings.Builder
	sb.WriteString("\n" + p.Title + "\n\n")
	sb.WriteString(p.Title + " is a detailed, accurate, and compelling documentary series that brings events to life. ")
	sb.WriteString("This highly awaited installment has brought together a cast of A-list stars, as well as the best and brightest writers and artists. ")
	sb.WriteString("The gripping story and stunning visuals have led some reviewers to suggest it may be the greatest documentary film of all time.\n\n")
	sb.WriteString(fmt.Sprintf("The topic of this chapter is %s.\n\n", p.Topic))

	if bg := strings.TrimSpace(p.Background); bg != "" {
		sb.WriteString("Background Information:\n" + Delimiter + "\n")
		sb.WriteString(bg + "\n")
		sb.WriteString(Delimiter + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("We're honored that you've agreed to write this compelling, epic, gripping and detailed chapter. The chapter consists of %d scenes", numScenes))
	if p.Background != "" {
		sb.WriteString(", summarizing all events in the Background Information and describing their broader importance")
	}
	sb.WriteString(". You will be working with our concept artist. For each scene, write two sentences: a detailed piece of voice-acted dialogue, and a visual art prompt describing the scene that the artist should paint. ")
	sb.WriteString("Please remember: dialogue must be detailed and accurate, and each Visual Art Prompt must stand alone without reference to previous scenes.\n\n")

	sb.WriteString("Scene 1:\n" + Delimiter + "\nDialogue:")
	if p.FirstLine != "" {
		sb.WriteString(" \"" + p.FirstLine + "\"\nVisual Art Prompt:")
	}
	return sb.String()
}

// NextScenePrompt closes the previous scene block and opens scene i
func NextScenePrompt(i int) string {
	return fmt.Sprintf("\n%s\nScene %d:\n%s", Delimiter, i, Delimiter)
}

// FinalPrompt closes the last scene and asks for everything again as JSON
func FinalPrompt() string {
	return "\n" + Delimiter + "\n\n" +
		"Well done, thank you. Now if you would kindly repeat all of the previous scenes but in JSON format, " +
		"as a list of items, each containing \"dialogue\" and \"visualArtPrompt\" keys.\n\n" +
		"JSON:\n" + Delimiter
}
