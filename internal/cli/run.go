package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskq/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	runFile   string
	runPop    int
	runFormat string
)

type runResult struct {
	Popped    []models.Task `yaml:"popped"`
	Remaining []models.Task `yaml:"remaining"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import a task file and pop tasks in priority order",
	Long: `Load every task from a task file into a fresh queue, pop tasks in
priority order and print them, then print what is left in the queue.

By default every task is popped. Use --pop N to stop after N tasks.

Examples:
  taskq run --file tasks.yaml
  taskq run --file tasks.yaml --pop 3 -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("task queue not initialized")
		}
		if err := validateFormat(runFormat); err != nil {
			return err
		}

		n, err := importTaskFile(Queue, runFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		limit := runPop
		if limit < 0 || limit > Queue.Len() {
			limit = Queue.Len()
		}

		if runFormat == formatText {
			fmt.Fprintf(out, "Imported %d task(s) from %s\n\n", n, runFile)
			fmt.Fprintln(out, "Popped:")
		}

		popped := make([]models.Task, 0, limit)
		for i := 0; i < limit; i++ {
			task, ok, err := Queue.PopTask()
			if err != nil {
				return fmt.Errorf("popping task: %w", err)
			}
			if !ok {
				break
			}
			popped = append(popped, *task)
		}
		remaining := Queue.ListTasksSorted()

		if runFormat == formatYAML {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(runResult{Popped: popped, Remaining: remaining}); err != nil {
				return fmt.Errorf("encoding run result: %w", err)
			}
			return enc.Close()
		}

		if len(popped) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for i, t := range popped {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, formatTaskLine(t))
		}

		fmt.Fprintln(out, "\nRemaining:")
		if len(remaining) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, t := range remaining {
			fmt.Fprintf(out, "      %s\n", formatTaskLine(t))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Task file to import (required)")
	runCmd.Flags().IntVar(&runPop, "pop", -1, "Number of tasks to pop (default all)")
	runCmd.Flags().StringVarP(&runFormat, "output", "o", formatText, "Output format: text or yaml")
	_ = runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}
