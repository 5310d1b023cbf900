package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/pinch-protocol/ss58/internal/convert"
	"github.com/pinch-protocol/ss58/internal/registry"
	"github.com/pinch-protocol/ss58/internal/store"
)

// cli holds the flags shared by every subcommand.
type cli struct {
	format         string
	expect         []string
	ignoreChecksum bool
	strict         bool
	dbPath         string

	db       *bolt.DB
	networks *store.NetworkStore
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "ss58",
		Short:         "Encode, decode and convert SS58 addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	flags := root.PersistentFlags()
	flags.BoolVar(&c.strict, "strict", false, "Reject prefixes that no registry knows")
	flags.StringVar(&c.dbPath, "db", "", "bbolt file with custom networks registered through ss58d")

	root.AddCommand(c.encodeCmd(), c.decodeCmd(), c.convertCmd(), c.networksCmd())
	return root
}

func (c *cli) open() error {
	if c.dbPath == "" {
		return nil
	}
	db, err := store.OpenDB(c.dbPath)
	if err != nil {
		return err
	}
	networks, err := store.NewNetworkStore(db)
	if err != nil {
		db.Close()
		return err
	}
	c.db, c.networks = db, networks
	return nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *cli) registry() registry.Registry {
	if c.networks == nil {
		return registry.Builtin()
	}
	return registry.Chain{c.networks, registry.Builtin()}
}

func (c *cli) service() *convert.Service {
	return convert.New(
		convert.WithRegistry(c.registry()),
		convert.WithStrict(c.strict),
	)
}

// resolve turns a prefix number or network name into a prefix, consulting
// custom networks when a database is open.
func (c *cli) resolve(format string) (int, error) {
	prefix, err := registry.ResolveFormat(registry.Builtin(), format)
	if err == nil || c.networks == nil {
		return prefix, err
	}
	custom, listErr := c.networks.List()
	if listErr != nil {
		return 0, listErr
	}
	for _, n := range custom {
		if strings.EqualFold(n.Network, format) {
			return n.Prefix, nil
		}
	}
	return 0, err
}

func (c *cli) encodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode 0xPAYLOAD",
		Short: "Encode a hex payload as an SS58 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := c.resolve(c.format)
			if err != nil {
				return err
			}
			res, err := c.service().Encode(convert.EncodeRequest{Payload: args[0], Format: &prefix})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Address)
			return nil
		},
	}
	cmd.Flags().StringVarP(&c.format, "format", "f", "42", "Prefix number or network name")
	return cmd
}

func (c *cli) decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode ADDRESS",
		Short: "Decode an SS58 address (or 0x hex) and print its payload and prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := convert.DecodeRequest{Address: args[0], IgnoreChecksum: c.ignoreChecksum}
			for _, e := range c.expect {
				prefix, err := c.resolve(e)
				if err != nil {
					return err
				}
				req.Expect = append(req.Expect, prefix)
			}
			res, err := c.service().Decode(req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVarP(&c.expect, "expect", "e", nil, "Accepted prefixes or network names (repeatable)")
	flags.BoolVar(&c.ignoreChecksum, "ignore-checksum", false, "Skip checksum verification")
	return cmd
}

func (c *cli) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert ADDRESS",
		Short: "Re-encode an address for another network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := c.resolve(c.format)
			if err != nil {
				return err
			}
			res, err := c.service().Convert(convert.ConvertRequest{Address: args[0], Format: prefix})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Address)
			return nil
		},
	}
	cmd.Flags().StringVarP(&c.format, "format", "f", "42", "Target prefix number or network name")
	return cmd
}

func (c *cli) networksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List known networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PREFIX\tNETWORK\tNAME\tSOURCE")
			for _, n := range registry.Builtin().Networks() {
				fmt.Fprintf(w, "%d\t%s\t%s\tbuiltin\n", n.Prefix, n.Network, n.DisplayName)
			}
			if c.networks != nil {
				custom, err := c.networks.List()
				if err != nil {
					return err
				}
				for _, n := range custom {
					fmt.Fprintf(w, "%d\t%s\t%s\tcustom\n", n.Prefix, n.Network, n.DisplayName)
				}
			}
			return w.Flush()
		},
	}
}
