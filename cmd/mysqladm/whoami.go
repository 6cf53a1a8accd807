package main

import (
	"fmt"
	"strings"

	"mysqladm/protocol"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "List the database/user name prefixes you are authorized to use",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.ListValidNamePrefixesRequest{}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}
			r, ok := resp.(protocol.ListValidNamePrefixesResponse)
			if !ok {
				return fmt.Errorf("unexpected response %T", resp)
			}
			if flagJSON {
				return printJSON(r.Prefixes)
			}
			fmt.Println(strings.Join(r.Prefixes, "\n"))
			return nil
		})
	},
}
