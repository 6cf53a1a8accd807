package main

import (
	"fmt"
	"sort"

	"mysqladm/protocol"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage databases you own",
}

var dbCreateCmd = &cobra.Command{
	Use:   "create NAME [NAME...]",
	Short: "Create one or more databases",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.CreateDatabasesRequest{Names: args}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}
			r, ok := resp.(protocol.CreateDatabasesResponse)
			if !ok {
				return fmt.Errorf("unexpected response %T", resp)
			}
			return reportBatch(r.Results)
		})
	},
}

var dbDropCmd = &cobra.Command{
	Use:   "drop NAME [NAME...]",
	Short: "Drop one or more databases",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.DropDatabasesRequest{Names: args}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}
			r, ok := resp.(protocol.DropDatabasesResponse)
			if !ok {
				return fmt.Errorf("unexpected response %T", resp)
			}
			return reportBatch(r.Results)
		})
	},
}

var dbListCmd = &cobra.Command{
	Use:   "ls [NAME...]",
	Short: "List databases you own, or the named ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.ListDatabasesRequest{Names: args}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}

			switch r := resp.(type) {
			case protocol.ListAllDatabasesResponse:
				return printDatabaseRows(r.Databases)
			case protocol.ListDatabasesResponse:
				if flagJSON {
					return printJSON(r.Results)
				}
				names := make([]string, 0, len(r.Results))
				for name := range r.Results {
					names = append(names, name)
				}
				sort.Strings(names)
				failed := false
				for _, name := range names {
					res := r.Results[name]
					if res.Failure.IsZero() {
						fmt.Println(res.Value.Database)
						continue
					}
					failed = true
					fmt.Printf("%s: %s\n", name, res.Failure.Message)
				}
				if failed {
					return fmt.Errorf("one or more items failed")
				}
				return nil
			default:
				return fmt.Errorf("unexpected response %T", resp)
			}
		})
	},
}

func printDatabaseRows(rows []protocol.DatabaseRowWire) error {
	if flagJSON {
		return printJSON(rows)
	}
	for _, r := range rows {
		fmt.Println(r.Database)
	}
	return nil
}

func init() {
	dbCmd.AddCommand(dbCreateCmd, dbDropCmd, dbListCmd)
}
