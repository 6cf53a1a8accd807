package main

import (
	"fmt"
	"os"
	"os/exec"

	"mysqladm/privilege"
	"mysqladm/protocol"

	"github.com/spf13/cobra"
)

var privilegeCmd = &cobra.Command{
	Use:     "priv",
	Aliases: []string{"privilege"},
	Short:   "View and edit database privileges",
}

var privilegeListCmd = &cobra.Command{
	Use:   "ls [DATABASE...]",
	Short: "List privilege rows for the named databases, or every owned row",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			rows, err := fetchRows(wire, args)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(rows)
			}
			fmt.Print(privilege.RenderEditorDocument(rows, "", ""))
			return nil
		})
	},
}

// privilegeEditCmd opens the caller's rows in $EDITOR, following the
// original toolset's "hand the caller a text document, diff what they give
// back" workflow: the CLI fetches the current rows, renders them, lets the
// caller edit the rendered document in place, re-parses it, computes the
// minimal diff, and submits only that diff for application.
var privilegeEditCmd = &cobra.Command{
	Use:   "edit [DATABASE...]",
	Short: "Edit privilege rows for the named databases, or every owned row, in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			before, err := fetchRows(wire, args)
			if err != nil {
				return err
			}

			database := ""
			if len(args) == 1 {
				database = args[0]
			}
			after, err := editRows(before, database)
			if err != nil {
				return err
			}

			diffs := privilege.ComputeDiffs(before, after)
			wireDiffs := make([]protocol.DiffWire, 0, len(diffs))
			for key, d := range diffs {
				if d.IsNoop() {
					continue
				}
				wireDiffs = append(wireDiffs, protocol.ToWire(key, d))
			}
			if len(wireDiffs) == 0 {
				fmt.Println("no changes")
				return nil
			}

			if err := wire.WriteRequest(protocol.ModifyPrivilegesRequest{Diffs: wireDiffs}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}
			r, ok := resp.(protocol.ModifyPrivilegesResponse)
			if !ok {
				return fmt.Errorf("unexpected response %T", resp)
			}
			return reportBatch(r.Results)
		})
	},
}

func fetchRows(wire *protocol.Conn, names []string) ([]privilege.Row, error) {
	if err := wire.WriteRequest(protocol.ListPrivilegesRequest{Names: names}); err != nil {
		return nil, err
	}
	resp, err := wire.ReadResponse()
	if err != nil {
		return nil, err
	}
	switch r := resp.(type) {
	case protocol.ListAllPrivilegesResponse:
		return r.Rows, nil
	case protocol.ListPrivilegesResponse:
		var rows []privilege.Row
		for name, res := range r.Results {
			if !res.Failure.IsZero() {
				return nil, fmt.Errorf("%s: %s", name, res.Failure.Message)
			}
			rows = append(rows, res.Value...)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unexpected response %T", resp)
	}
}

// editRows writes rows to a temp file as the rendered editor document,
// opens $EDITOR (falling back to vi) on it, and parses the result back.
func editRows(rows []privilege.Row, database string) ([]privilege.Row, error) {
	f, err := os.CreateTemp("", "mysqladm-priv-*.txt")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(privilege.RenderEditorDocument(rows, os.Getenv("USER"), database)); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run editor %q: %w", editor, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := privilege.ParseEditorDocument(string(edited))
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func init() {
	privilegeCmd.AddCommand(privilegeListCmd, privilegeEditCmd)
}
