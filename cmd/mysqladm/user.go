package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"mysqladm/protocol"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage database accounts you own",
}

var userCreateCmd = &cobra.Command{
	Use:   "create NAME [NAME...]",
	Short: "Create one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			return roundTripBatch(wire, protocol.CreateUsersRequest{Names: args},
				func(r protocol.Response) (map[string]protocol.Failure, error) {
					v, ok := r.(protocol.CreateUsersResponse)
					if !ok {
						return nil, fmt.Errorf("unexpected response %T", r)
					}
					return v.Results, nil
				})
		})
	},
}

var userDropCmd = &cobra.Command{
	Use:   "drop NAME [NAME...]",
	Short: "Drop one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			return roundTripBatch(wire, protocol.DropUsersRequest{Names: args},
				func(r protocol.Response) (map[string]protocol.Failure, error) {
					v, ok := r.(protocol.DropUsersResponse)
					if !ok {
						return nil, fmt.Errorf("unexpected response %T", r)
					}
					return v.Results, nil
				})
		})
	},
}

var userLockCmd = &cobra.Command{
	Use:   "lock NAME [NAME...]",
	Short: "Lock one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			return roundTripBatch(wire, protocol.LockUsersRequest{Names: args},
				func(r protocol.Response) (map[string]protocol.Failure, error) {
					v, ok := r.(protocol.LockUsersResponse)
					if !ok {
						return nil, fmt.Errorf("unexpected response %T", r)
					}
					return v.Results, nil
				})
		})
	},
}

var userUnlockCmd = &cobra.Command{
	Use:   "unlock NAME [NAME...]",
	Short: "Unlock one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			return roundTripBatch(wire, protocol.UnlockUsersRequest{Names: args},
				func(r protocol.Response) (map[string]protocol.Failure, error) {
					v, ok := r.(protocol.UnlockUsersResponse)
					if !ok {
						return nil, fmt.Errorf("unexpected response %T", r)
					}
					return v.Results, nil
				})
		})
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd NAME",
	Short: "Set an account's password, prompting twice on a terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPasswordTwice()
		if err != nil {
			return err
		}
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.PasswdUserRequest{User: args[0], Password: password}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}
			r, ok := resp.(protocol.PasswdUserResponse)
			if !ok {
				return fmt.Errorf("unexpected response %T", resp)
			}
			if flagJSON {
				return printJSON(r.Failure)
			}
			if r.Failure.IsZero() {
				fmt.Println("password updated")
				return nil
			}
			return fmt.Errorf("%s: %s", r.Failure.Kind, r.Failure.Message)
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "ls [NAME...]",
	Short: "List accounts you own, or the named ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(wire *protocol.Conn) error {
			if err := wire.WriteRequest(protocol.ListUsersRequest{Names: args}); err != nil {
				return err
			}
			resp, err := wire.ReadResponse()
			if err != nil {
				return err
			}

			switch r := resp.(type) {
			case protocol.ListAllUsersResponse:
				return printUserRows(r.Users)
			case protocol.ListUsersResponse:
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
						printUserLine(res.Value)
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

func printUserRows(users []protocol.DatabaseUserWire) error {
	if flagJSON {
		return printJSON(users)
	}
	for _, u := range users {
		printUserLine(u)
	}
	return nil
}

func printUserLine(u protocol.DatabaseUserWire) {
	status := "unlocked"
	if u.IsLocked {
		status = "locked"
	}
	fmt.Printf("%s@%s\t%s\tdatabases: %s\n", u.User, u.Host, status, strings.Join(u.Databases, ", "))
}

// roundTripBatch sends req, reads the matching response, and reports it as
// a per-item batch result, covering every *UsersRequest/*UsersResponse pair
// that differs only in type and field name.
func roundTripBatch(wire *protocol.Conn, req protocol.Request, extract func(protocol.Response) (map[string]protocol.Failure, error)) error {
	if err := wire.WriteRequest(req); err != nil {
		return err
	}
	resp, err := wire.ReadResponse()
	if err != nil {
		return err
	}
	results, err := extract(resp)
	if err != nil {
		return err
	}
	return reportBatch(results)
}

// readPasswordTwice prompts for a password without echo when stdin is a
// terminal, and requires the two entries to match, matching the passwd(1)
// convention the original front end imitates.
func readPasswordTwice() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "New password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Retype new password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

func init() {
	userCmd.AddCommand(userCreateCmd, userDropCmd, userLockCmd, userUnlockCmd, userPasswdCmd, userListCmd)
}
