package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type generateFlags struct {
	text       string
	textFile   string
	document   string
	designLink string
	focus      string
	images     []string
	async      bool
	priority   int
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test cases from requirements, a document or screenshots",
	Example: `  automation generate --text "Users can reset their password by email"
  automation generate --document requirements.pdf --image login.png --focus "error states"
  automation generate --document requirements.pdf --async --priority 1`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.text, "text", "", "requirements text")
	f.StringVar(&genFlags.textFile, "text-file", "", "read requirements text from a file")
	f.StringVar(&genFlags.document, "document", "", "requirements document (PDF or text)")
	f.StringVar(&genFlags.designLink, "design-link", "", "link to the design, e.g. a Figma URL")
	f.StringVar(&genFlags.focus, "focus", "", "what the generated cases should concentrate on")
	f.StringSliceVar(&genFlags.images, "image", nil, "screenshot to include (repeatable)")
	f.BoolVar(&genFlags.async, "async", false, "queue the generation as a background job")
	f.IntVar(&genFlags.priority, "priority", -1, "job priority for --async, 0 is the most urgent")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	in := GenerateInput{
		DocumentText: genFlags.text,
		DocumentPath: genFlags.document,
		DesignLink:   genFlags.designLink,
		Focus:        genFlags.focus,
		ImagePaths:   genFlags.images,
	}
	if genFlags.textFile != "" {
		data, err := os.ReadFile(genFlags.textFile)
		if err != nil {
			return fmt.Errorf("reading --text-file: %w", err)
		}
		in.DocumentText = string(data)
	}
	if in.DocumentText == "" && in.DocumentPath == "" && in.DesignLink == "" && len(in.ImagePaths) == 0 {
		return errors.New("nothing to generate from: pass --text, --text-file, --document, --design-link or --image")
	}
	if genFlags.priority >= 0 {
		if genFlags.priority > 255 {
			return fmt.Errorf("--priority must be between 0 and 255, got %d", genFlags.priority)
		}
		p := uint8(genFlags.priority)
		in.Priority = &p
	}

	client, err := newClientFromFlags()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if genFlags.async {
		jobID, err := client.EnqueueJob(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Queued job %s\nCheck it with: automation job status %s\n", jobID, jobID)
		return nil
	}

	entry, err := client.Generate(cmd.Context(), in)
	if err != nil {
		return err
	}
	renderTestCases(out, entry.TestCases, gf.markdown)
	fmt.Fprintf(out, "%d test cases saved as history entry %d\n", len(entry.TestCases), entry.ID)
	return nil
}
