package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/ops"
	"github.com/hpungsan/snip/internal/snippet"
)

// maxStdinBytes caps prompt text read from stdin.
const maxStdinBytes = 1 << 20

var clipboardWriteAll = clipboard.WriteAll

// runner opens the data directory on first use so help and version
// never touch it.
type runner struct {
	opts envOptions
	env  *env
}

func (r *runner) open(c *cli.Context) (*env, error) {
	if r.env != nil {
		return r.env, nil
	}
	opts := r.opts
	if d := c.String("data-dir"); d != "" {
		opts.dataDir = d
	}
	opts.verbose = c.Bool("verbose")

	e, err := openEnv(opts)
	if err != nil {
		return nil, err
	}
	r.env = e
	return e, nil
}

func (r *runner) close() {
	if r.env != nil {
		r.env.close()
		r.env = nil
	}
}

// action wraps a command body that needs an open env.
func (r *runner) action(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := r.open(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return fn(c, e)
	}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(opts envOptions) *cli.App {
	r := &runner{opts: opts}
	app := &cli.App{
		Name:    "snip",
		Usage:   "Prompt snippet manager",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, EnvVars: []string{"SNIP_DATA_DIR"}, Usage: "Data directory (default ~/.snip)"},
			&cli.BoolFlag{Name: "verbose", Usage: "Debug logging on stderr"},
			&cli.BoolFlag{Name: "json", Usage: "JSON output for table commands"},
		},
		Commands: []*cli.Command{
			addCmd(r),
			updateCmd(r),
			deleteCmd(r),
			cloneCmd(r),
			showCmd(r),
			listCmd(r),
			searchCmd(r),
			composeCmd(r),
			categoriesCmd(r),
			labelsCmd(r),
			cleanupCmd(r),
			refreshCmd(r),
			exportCmd(r),
			importCmd(r),
			serveCmd(r),
		},
		After: func(_ *cli.Context) error {
			r.close()
			return nil
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// promptText returns --text, or stdin when it is piped.
func promptText(c *cli.Context) (string, bool, error) {
	if c.IsSet("text") {
		return c.String("text"), true, nil
	}
	if !stdinHasData() {
		return "", false, nil
	}
	text, err := readStdin()
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

// addCmd creates the add command.
func addCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a snippet (prompt text from --text or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Display name"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true, Usage: "Category name"},
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Prompt text"},
			&cli.StringFlag{Name: "labels", Aliases: []string{"l"}, Usage: "Comma-separated labels"},
			&cli.BoolFlag{Name: "exclusive", Aliases: []string{"x"}, Usage: "Only one exclusive snippet per category can be selected"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			text, _, err := promptText(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.Add(e.session, ops.AddInput{
				Name:       c.String("name"),
				Category:   c.String("category"),
				PromptText: text,
				Labels:     snippet.SplitLabels(c.String("labels")),
				Exclusive:  c.Bool("exclusive"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		}),
	}
}

// updateCmd creates the update command.
func updateCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a snippet (optionally reads prompt text from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New display name"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category"},
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "New prompt text"},
			&cli.StringFlag{Name: "labels", Aliases: []string{"l"}, Usage: "Replacement comma-separated labels"},
			&cli.BoolFlag{Name: "exclusive", Aliases: []string{"x"}, Usage: "New exclusive flag"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			text, ok, err := promptText(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if ok {
				input.PromptText = &text
			}
			if c.IsSet("name") {
				name := c.String("name")
				input.Name = &name
			}
			if c.IsSet("category") {
				category := c.String("category")
				input.Category = &category
			}
			if c.IsSet("labels") {
				labels := snippet.SplitLabels(c.String("labels"))
				input.Labels = &labels
			}
			if c.IsSet("exclusive") {
				exclusive := c.Bool("exclusive")
				input.Exclusive = &exclusive
			}

			output, err := ops.Update(e.session, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		}),
	}
}

// deleteCmd creates the delete command.
func deleteCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete snippets",
		ArgsUsage: "<id> [id...]",
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Delete(e.session, ops.DeleteInput{IDs: c.Args().Slice()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// cloneCmd creates the clone command.
func cloneCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "clone",
		Usage:     "Copy a snippet under a new id",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name for the copy"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Clone(e.session, ops.CloneInput{ID: c.Args().First(), Name: c.String("name")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// showCmd creates the show command.
func showCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a snippet",
		ArgsUsage: "<id>",
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Fetch(e.session, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// listCmd creates the list command.
func listCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List snippets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category"},
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "Only snippets with this label"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Usage: "Page offset"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.List(e.session, ops.ListInput{
				Category: c.String("category"),
				Label:    c.String("label"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			renderSnippets(os.Stdout, output.Items)
			return nil
		}),
	}
}

// searchCmd creates the search command.
func searchCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search snippets by text, categories and labels",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category bubble (repeatable)"},
			&cli.StringSliceFlag{Name: "label", Aliases: []string{"l"}, Usage: "Label bubble (repeatable)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "AND", Usage: "How bubbles combine: AND|OR"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Usage: "Page offset"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Search(e.session, ops.SearchInput{
				Query:      strings.Join(c.Args().Slice(), " "),
				Categories: c.StringSlice("category"),
				Labels:     c.StringSlice("label"),
				Mode:       c.String("mode"),
				Limit:      c.Int("limit"),
				Offset:     c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			fmt.Fprintln(os.Stdout, output.Description)
			renderSnippets(os.Stdout, output.Items)
			return nil
		}),
	}
}

// composeCmd creates the compose command.
func composeCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "compose",
		Usage:     "Assemble snippets into one prompt",
		ArgsUsage: "<id> [id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: ops.FormatText, Usage: "Bundle format: text|markdown|html"},
			&cli.BoolFlag{Name: "copy", Usage: "Copy the bundle to the system clipboard"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one id is required"))
			}
			output, err := ops.Compose(e.session, ops.ComposeInput{
				IDs:    c.Args().Slice(),
				Format: c.String("format"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("copy") {
				if err := clipboardWriteAll(output.BundleText); err != nil {
					return outputError(errors.NewInternal(fmt.Errorf("copy to clipboard: %w", err)))
				}
				e.logger.Debug("bundle copied to clipboard")
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			fmt.Fprintln(os.Stdout, output.BundleText)
			return nil
		}),
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List categories",
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Categories(e.session)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"NAME", "ORDER", "COLOR", "USED", "ID"})
			for _, cat := range output.Items {
				color := ""
				if cat.Color != nil {
					color = *cat.Color
				}
				table.Append([]string{cat.Name, strconv.Itoa(cat.SortOrder), color, strconv.Itoa(cat.UsageCount), cat.ID})
			}
			table.Render()
			return nil
		}),
	}
}

// labelsCmd creates the labels command.
func labelsCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "labels",
		Usage: "List labels",
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Labels(e.session)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"NAME", "USED", "ID"})
			for _, l := range output.Items {
				table.Append([]string{l.Name, strconv.Itoa(l.UsageCount), l.ID})
			}
			table.Render()
			return nil
		}),
	}
}

// cleanupCmd creates the cleanup command.
func cleanupCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Report unused categories and labels",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remove", Usage: "Delete unused records"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Cleanup(e.session, ops.CleanupInput{RemoveUnused: c.Bool("remove")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// refreshCmd creates the refresh command.
func refreshCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Heal orphan references and recount usage",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reload", Usage: "Re-read metadata.json first"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Refresh(e.session, ops.RefreshInput{Reload: c.Bool("reload")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// exportCmd creates the export command.
func exportCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export snippets to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file, directly in <data dir>/exports or an allowed_paths directory"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category"},
		},
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Export(e.session, e.cfg, ops.ExportInput{
				Path:     c.String("path"),
				Category: c.String("category"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// importCmd creates the import command.
func importCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import snippets from a JSON file",
		ArgsUsage: "<path>",
		Action: r.action(func(c *cli.Context, e *env) error {
			output, err := ops.Import(e.session, e.cfg, ops.ImportInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

// serveCmd creates the serve command.
func serveCmd(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server over stdio",
		Action: r.action(func(_ *cli.Context, e *env) error {
			if err := e.serve(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		}),
	}
}

// renderSnippets prints views as a table.
func renderSnippets(w io.Writer, items []snippet.View) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "NAME", "CATEGORY", "LABELS", "EXCL"})
	for _, v := range items {
		excl := ""
		if v.Exclusive {
			excl = "yes"
		}
		table.Append([]string{v.ID, v.Name, v.Category, strings.Join(v.Labels, ", "), excl})
	}
	table.Render()
}

// outputJSON outputs data as formatted JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if snipErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", snipErr.Code, snipErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads up to maxStdinBytes from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxStdinBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxStdinBytes)
	}
	return strings.TrimSpace(string(data)), nil
}
