package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
)

type patchCommander struct {
	htmlPath  string
	patchPath string
	diff      bool
}

const patchLongDesc string = `Apply SEARCH/REPLACE diff blocks to an HTML file and print the result.

The patch file is raw model output; text around the blocks is ignored and
blocks whose search text is not found are skipped. Pass "-" to read either
input from stdin. With --diff a line diff is printed instead of the document.`

func newPatchCmd() *cobra.Command {
	cmder := &patchCommander{}

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply diff blocks to a local HTML file",
		Long:  patchLongDesc,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.htmlPath == "" || cmder.patchPath == "" {
				return usageError{fmt.Errorf("--html and --patch are required")}
			}
			if cmder.htmlPath == "-" && cmder.patchPath == "-" {
				return usageError{fmt.Errorf("only one of --html and --patch can read stdin")}
			}
			return cmder.run(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&cmder.htmlPath, "html", "", "HTML document to patch (- for stdin)")
	cmd.Flags().StringVar(&cmder.patchPath, "patch", "", "file holding the diff blocks (- for stdin)")
	cmd.Flags().BoolVar(&cmder.diff, "diff", false, "print a line diff instead of the patched document")
	return cmd
}

func (c *patchCommander) run(stdin io.Reader, out, errOut io.Writer) error {
	source, err := readInput(c.htmlPath, stdin)
	if err != nil {
		return err
	}
	raw, err := readInput(c.patchPath, stdin)
	if err != nil {
		return err
	}

	res := patch.Apply(source, raw)
	fmt.Fprintf(errOut, "applied %d of %d blocks, updated lines %v\n", //nolint:errcheck
		len(res.UpdatedLines), len(patch.ParseBlocks(raw)), res.UpdatedLines)

	if c.diff {
		_, err = io.WriteString(out, patch.Preview(source, res.HTML))
		return err
	}
	_, err = io.WriteString(out, res.HTML)
	return err
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
