package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/config"
	"github.com/wosledon/vitanote/internal/offline"
)

var (
	offlineFile string
	offlineJSON bool
)

func init() {
	offlineCmd.PersistentFlags().StringVar(&offlineFile, "file", "", "offline database file (default: offline.path from config)")
	offlineExecCmd.Flags().BoolVar(&offlineJSON, "json", false, "print the result as JSON")
	offlineCmd.AddCommand(offlineExecCmd)
	offlineCmd.AddCommand(offlineTablesCmd)
}

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Work with the embedded offline store",
}

var offlineExecCmd = &cobra.Command{
	Use:   "exec <sql> [args...]",
	Short: "Run one SQL statement against the offline store",
	Long: `Run one SQL statement. Extra arguments bind to ? placeholders in order.

Examples:
  vitanote offline exec "CREATE TABLE readings (id INTEGER PRIMARY KEY, kind TEXT NOT NULL, value REAL)"
  vitanote offline exec "INSERT INTO readings (kind, value) VALUES (?, ?)" glucose 5.6
  vitanote offline exec "SELECT * FROM readings WHERE value > 5 ORDER BY id DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openOffline()
		if err != nil {
			return err
		}
		defer db.Close()

		params := make([]any, len(args)-1)
		for i, a := range args[1:] {
			params[i] = a
		}
		res, err := db.Exec(cmd.Context(), args[0], params...)
		if err != nil {
			return err
		}
		if offlineJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var offlineTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List offline tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openOffline()
		if err != nil {
			return err
		}
		defer db.Close()

		tables, err := db.Tables(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS")
		for _, t := range tables {
			cols := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				cols[i] = c.Name + " " + string(c.Type)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", t.Name, t.Rows, strings.Join(cols, ", "))
		}
		return w.Flush()
	},
}

func openOffline() (*offline.DB, error) {
	path := offlineFile
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Offline.Path
	}
	return offline.Open(path, zap.NewNop())
}

func printResult(out io.Writer, res *offline.Result) error {
	if res.Columns == nil {
		_, err := fmt.Fprintf(out, "rows affected: %d, last insert id: %d\n", res.RowsAffected, res.LastInsertID)
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	return w.Flush()
}
