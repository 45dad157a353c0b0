// Package main is tracedf's CLI: build/query/plan/load/shared
// subcommands over cobra, following the teacher's own cmd/smf layout
// (flag structs, one constructor function per subcommand, RunE closures
// delegating to a run function).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tracedf/internal/dataframe"
	"tracedf/internal/dflog"
	"tracedf/internal/interp"
	"tracedf/internal/output"
	"tracedf/internal/planner"
	"tracedf/internal/shared"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracedf",
		Short: "Columnar query engine for trace analysis",
	}

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(sharedCmd())

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// --- build ------------------------------------------------------------

func buildCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a dataframe from a CSV file via the adhoc builder and print its column summary",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBuild(csvPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a CSV file with a header row (required)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runBuild(csvPath string) error {
	df, err := loadCSVDataframe(csvPath)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	printColumnSummary(df)
	return nil
}

func printColumnSummary(df *dataframe.Dataframe) {
	fmt.Printf("%d rows, %d columns\n", df.RowCount(), len(df.Columns()))
	for _, c := range df.Columns() {
		fmt.Printf("  %-20s kind=%-7s sort=%-12s nullable=%v\n", c.Spec.Name, c.Spec.Kind, c.Spec.Sort, c.Spec.Nullable)
	}
}

// --- query --------------------------------------------------------------

type queryFlags struct {
	csvPath    string
	where      string
	selectCols string
	format     string
	configPath string
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Plan, execute, and print a query against a CSV-backed dataframe",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runQuery(flags)
		},
	}
	cmd.Flags().StringVar(&flags.csvPath, "csv", "", "path to a CSV file with a header row (required)")
	cmd.Flags().StringVar(&flags.where, "where", "", "predicate, e.g. \"dur > 1000 AND name LIKE 'sched%'\"")
	cmd.Flags().StringVar(&flags.selectCols, "select", "", "comma-separated output columns (default: all columns)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: table or json")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to an EngineConfig TOML file")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runQuery(flags *queryFlags) error {
	log := dflog.New(false)
	defer func() { _ = log.Sync() }()

	df, err := loadCSVDataframe(flags.csvPath)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	cfg, err := loadEngineConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	outputs, infos, err := resolveOutputColumns(df, flags.selectCols)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	q, err := parsePredicate(flags.where, df.ColumnIndex)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	plan, err := planner.BuildWithConfig(cfg.Planner, df.RowCount(), df.Columns(), q.Filters, outputs)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	in := interp.NewInterpreter(df, q.Values, q.Patterns)
	result, err := in.Run(plan.Program)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	rows := collectRows(outputs, plan, result)
	log.Info("query executed", zap.Int("rows", df.RowCount()), zap.Int("selected", len(rows)))

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	rendered, err := formatter.FormatRows(infos, rows)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	fmt.Print(rendered)
	return nil
}

// --- plan -----------------------------------------------------------------

type planFlags struct {
	csvPath    string
	where      string
	selectCols string
	configPath string
}

func planCmd() *cobra.Command {
	flags := &planFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compile a query plan and print its serialized form",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPlan(flags)
		},
	}
	cmd.Flags().StringVar(&flags.csvPath, "csv", "", "path to a CSV file with a header row (required)")
	cmd.Flags().StringVar(&flags.where, "where", "", "predicate, e.g. \"dur > 1000\"")
	cmd.Flags().StringVar(&flags.selectCols, "select", "", "comma-separated output columns (default: all columns)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to an EngineConfig TOML file")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runPlan(flags *planFlags) error {
	df, err := loadCSVDataframe(flags.csvPath)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	cfg, err := loadEngineConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	outputs, _, err := resolveOutputColumns(df, flags.selectCols)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	q, err := parsePredicate(flags.where, df.ColumnIndex)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	plan, err := planner.BuildWithConfig(cfg.Planner, df.RowCount(), df.Columns(), q.Filters, outputs)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	blob, err := planner.Serialize(plan)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	fmt.Println(blob)
	return nil
}

// --- load -------------------------------------------------------------

type loadFlags struct {
	dsn   string
	table string
}

func loadCmd() *cobra.Command {
	flags := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Build a dataframe from a MySQL table via RuntimeDataframeBuilder and print its column summary",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runLoad(flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "database connection string (required)")
	cmd.Flags().StringVar(&flags.table, "table", "", "table to SELECT * from (required)")
	_ = cmd.MarkFlagRequired("dsn")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func runLoad(flags *loadFlags) error {
	log := dflog.New(false)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), databaseTimeout)
	defer cancel()

	db, err := sql.Open("mysql", flags.dsn)
	if err != nil {
		return fmt.Errorf("load: open %q: %w", flags.dsn, err)
	}
	defer func() { _ = db.Close() }()

	df, err := loadMySQLDataframe(ctx, db, flags.table)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	log.Info("loaded dataframe from mysql", zap.String("table", flags.table), zap.Int("rows", df.RowCount()))
	printColumnSummary(df)
	return nil
}

// --- shared -------------------------------------------------------------

func sharedCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "shared",
		Short: "Build a dataframe from a CSV file and round-trip it through SharedStorage",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runShared(csvPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a CSV file with a header row (required)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runShared(csvPath string) error {
	df, err := loadCSVDataframe(csvPath)
	if err != nil {
		return fmt.Errorf("shared: %w", err)
	}

	store := shared.New()
	tag := store.UniqueTag()

	inserted := store.Insert(tag, df)
	found := store.Find(tag)

	fmt.Printf("inserted dataframe with %d rows under a fresh unique tag\n", inserted.RowCount())
	if found == inserted {
		fmt.Println("Find returned the same instance Insert stored")
	} else {
		fmt.Println("Find missed -- the dataframe was already reclaimed")
	}
	return nil
}
