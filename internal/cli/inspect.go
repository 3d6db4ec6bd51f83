package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/schema"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

func newTablesCommand() *cobra.Command {
	var dbName string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables and views of a database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := connect(ctx, configFrom(cmd))
			if err != nil {
				return err
			}
			defer db.Close()

			return withDatabase(ctx, db, dbName, func(conn database.Conn) error {
				tables, err := schema.New(conn).ListTables(ctx)
				if err != nil {
					return err
				}
				renderTables(cmd.OutOrStdout(), tables)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dbName, "database", "d", "", "database to inspect")
	return cmd
}

func newDescribeCommand() *cobra.Command {
	var (
		dbName string
		output string
	)
	cmd := &cobra.Command{
		Use:   "describe TABLE",
		Short: "Show the columns and keys of a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := connect(ctx, configFrom(cmd))
			if err != nil {
				return err
			}
			defer db.Close()

			return withDatabase(ctx, db, dbName, func(conn database.Conn) error {
				desc, err := schema.New(conn).Describe(ctx, args[0])
				if err != nil {
					return err
				}
				return renderDescriptor(cmd.OutOrStdout(), desc, output)
			})
		},
	}
	cmd.Flags().StringVarP(&dbName, "database", "d", "", "database containing the table")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table|yaml|json)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newQueryCommand() *cobra.Command {
	var dbName string
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run one SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFrom(cmd)
			db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return withDatabase(ctx, db, dbName, func(conn database.Conn) error {
				res, err := query.NewExecutor(conn, cfg.Query.MaxRows).Execute(ctx, args[0])
				if err != nil {
					return err
				}
				renderResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dbName, "database", "d", "", "database to run the statement in")
	cmd.Flags().Int("max-rows", 0, "rows shown for a read (default 100)")
	return cmd
}

func renderDescriptor(w io.Writer, desc *schema.TableDescriptor, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(desc); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		renderColumns(w, desc)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table, yaml, json)", output)
	}
}
