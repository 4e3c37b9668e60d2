package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/pkg/models"
)

const shellPrompt = "taskq> "

var shellFile string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell over an in-memory task queue",
	Long: `Start a line-oriented shell over a queue that lives until the shell exits.

Commands:
  add <name> [-p priority] [-d description] [--due date]
  pop                      remove and print the highest-priority task
  peek                     print the next task without removing it
  list [--sorted] [-o text|yaml]
  show <id>
  done <id>                mark a task completed; it keeps its place
  stats
  help [command]
  exit | quit

Arguments may be quoted with single or double quotes.
Use --file to seed the queue from a task file before the prompt appears.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("task queue not initialized")
		}

		out := cmd.OutOrStdout()
		if shellFile != "" {
			n, err := importTaskFile(Queue, shellFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d task(s) from %s\n", n, shellFile)
		}

		return runShell(cmd.InOrStdin(), out, Queue)
	},
}

// runShell reads commands from in until exit, quit or EOF. Errors from a
// single command are printed and the loop continues.
func runShell(in io.Reader, out io.Writer, q core.TaskQueue) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, shellPrompt)
	for scanner.Scan() {
		args, err := splitLine(scanner.Text())
		switch {
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			return nil
		default:
			if err := execShellLine(q, out, args); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		fmt.Fprint(out, shellPrompt)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

// execShellLine dispatches one tokenised line. A fresh command tree is built
// per line so flag values never leak from one line into the next.
func execShellLine(q core.TaskQueue, out io.Writer, args []string) error {
	root := newShellRoot(q)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	return root.Execute()
}

func newShellRoot(q core.TaskQueue) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskq",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newAddCmd(q),
		newPopCmd(q),
		newPeekCmd(q),
		newListCmd(q),
		newShowCmd(q),
		newDoneCmd(q),
		newStatsCmd(q),
	)
	return root
}

func newAddCmd(q core.TaskQueue) *cobra.Command {
	var priority, description, due string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Long: `Add a task to the queue. Words after "add" form the name, so quoting
is only needed when the name contains flag-like text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Priority
			if priority != "" {
				parsed, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				p = parsed
			}

			task, err := q.AddTask(core.AddTaskOpts{
				Name:        strings.Join(args, " "),
				Priority:    p,
				Description: description,
				DueDate:     due,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", formatTaskLine(*task))
			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Task priority: High, Medium or Low (default from config)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date, stored as given")
	return cmd
}

func newPopCmd(q core.TaskQueue) *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Remove and print the highest-priority task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, ok, err := q.PopTask()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Popped %s\n", formatTaskLine(*task))
			return nil
		},
	}
}

func newPeekCmd(q core.TaskQueue) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Print the next task without removing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, ok := q.PeekTask()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Next %s\n", formatTaskLine(*task))
			return nil
		},
	}
}

func newListCmd(q core.TaskQueue) *cobra.Command {
	var sorted bool
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		Long: `List queued tasks without removing them. By default tasks appear in heap
order, where only the first entry is guaranteed to be the next one popped.
Use --sorted to order them by priority.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			tasks := q.ListTasks()
			if sorted {
				tasks = q.ListTasksSorted()
			}
			return printTaskList(cmd.OutOrStdout(), tasks, format)
		},
	}

	cmd.Flags().BoolVar(&sorted, "sorted", false, "Order by priority instead of heap order")
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text or yaml")
	return cmd
}

func newShowCmd(q core.TaskQueue) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := q.GetTask(args[0])
			if err != nil {
				return describeTaskErr(args[0], err)
			}
			printTaskDetail(cmd.OutOrStdout(), *task)
			return nil
		},
	}
}

func newDoneCmd(q core.TaskQueue) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := q.CompleteTask(args[0])
			if err != nil {
				return describeTaskErr(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", formatTaskLine(*task))
			return nil
		},
	}
}

func newStatsCmd(q core.TaskQueue) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts per priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStats(cmd.OutOrStdout(), q.Stats())
			return nil
		},
	}
}

func describeTaskErr(id string, err error) error {
	if errors.Is(err, core.ErrTaskNotFound) {
		return fmt.Errorf("no queued task with ID %s", id)
	}
	return err
}

// splitLine tokenises a shell line. Single quotes preserve everything
// literally; inside double quotes and bare words a backslash escapes the
// next character.
func splitLine(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

func init() {
	shellCmd.Flags().StringVarP(&shellFile, "file", "f", "", "Seed the queue from a task file")
	rootCmd.AddCommand(shellCmd)
}
