package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect journaled runs",
}

var journalDB string

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournalDB()
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.ListRuns()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tCREATED\tSTRATEGY\tSYMBOLS\tRETURN\tTRADES")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f%%\t%d\n",
				r.RunID, r.Created.Format("2006-01-02 15:04"),
				r.Strategy, len(r.Symbols), r.TotalReturn*100, r.Trades)
		}
		return w.Flush()
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run as an org-mode block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournalDB()
		if err != nil {
			return err
		}
		defer j.Close()

		out, err := j.ExportRunOrg(args[0])
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDB, "db", "d", "", "journal database (defaults to journal.db_path from config)")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDB
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal database: pass --db or set journal.db_path")
	}
	return journal.NewSQLite(path)
}
