package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/termgraph/pkg/termgraph"
	"github.com/cognicore/termgraph/pkg/termgraph/config"
	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/metrics"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
	"github.com/cognicore/termgraph/pkg/termgraph/store/sqlite"
	"github.com/cognicore/termgraph/pkg/termgraph/textclean"
)

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("db") {
		cfg.Resources.Database = c.String("db")
	}
	return cfg, nil
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "extract the keyword graph of one or more documents",
		ArgsUsage: "PATH...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write JSON here (a directory when several documents are given)"},
			&cli.BoolFlag{Name: "html", Usage: "treat input as HTML (default: by .html/.htm extension)"},
			&cli.BoolFlag{Name: "name-groups", Usage: "name groups with the configured chat model"},
			&cli.StringFlag{Name: "db", Usage: "store results in this SQLite database"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address while running"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.Wrap(internalerr.ErrInvalidInput, "no input documents")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("name-groups") {
				cfg.Naming.Enabled = true
			}

			reg := prometheus.NewRegistry()
			if addr := c.String("metrics-addr"); addr != "" {
				go serveMetrics(addr, reg)
			}

			logger := logrus.StandardLogger()
			comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(c.Context)
			if err != nil {
				return err
			}
			defer comp.Close()

			engine, err := termgraph.New(termgraph.OptionsFromConfig(cfg, comp, metrics.New(reg), logger))
			if err != nil {
				return err
			}

			paths := c.Args().Slice()
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "read %s", path)
				}
				result, err := engine.Analyze(c.Context, termgraph.Document{
					Name: filepath.Base(path),
					Text: string(data),
					HTML: c.Bool("html") || isHTML(path),
				})
				if err != nil {
					return errors.Wrapf(err, "analyze %s", path)
				}
				if err := writeResult(c.String("out"), path, len(paths) > 1, result); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logrus.WithField("action", "serve_metrics").WithError(err).Warn("metrics server stopped")
	}
}

func writeResult(out, input string, many bool, result termgraph.Result) error {
	var w io.Writer = os.Stdout
	if out != "" {
		target := out
		if many {
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			target = filepath.Join(out, base+".json")
		}
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func contextCommand() *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "print the sentences of a document that mention all keywords",
		ArgsUsage: "PATH KEYWORD...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "maximum sentences"},
			&cli.BoolFlag{Name: "html", Usage: "treat input as HTML"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.Wrap(internalerr.ErrInvalidInput, "need a document and at least one keyword")
			}
			path := c.Args().First()
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var text string
			if c.Bool("html") || isHTML(path) {
				text, err = textclean.StripHTML(f)
			} else {
				var data []byte
				data, err = io.ReadAll(f)
				text = string(data)
			}
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}

			sentences := textclean.ContextSentences(
				textclean.SplitSentences(textclean.Normalize(text)), c.Args().Tail(), c.Int("limit"))
			for _, s := range sentences {
				fmt.Fprintln(c.App.Writer, s)
			}
			return nil
		},
	}
}

func openStore(c *cli.Context) (store.Store, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if cfg.Resources.Database == "" {
		return nil, errors.Wrap(internalerr.ErrStoreUnavailable, "no database configured (use --db)")
	}
	return sqlite.OpenSQLite(c.Context, cfg.Resources.Database)
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print a stored analysis",
		ArgsUsage: "ID",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "db", Usage: "SQLite database"}},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.Wrap(internalerr.ErrInvalidInput, "need an analysis id")
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			defer st.Close()

			a, err := st.GetAnalysis(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			var result termgraph.Result
			if err := json.Unmarshal(a.Payload, &result); err != nil {
				return errors.Wrap(err, "decode analysis")
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "id\t%s\nfile\t%s\ncreated\t%s\nmodularity\t%.4f\n\n",
				result.ID, result.Meta.File, result.CreatedAt.Format("2006-01-02 15:04:05"), result.Meta.Modularity)
			keywords := termgraph.GroupKeywords(result.Nodes)
			groups := make([]int, 0, len(keywords))
			for g := range keywords {
				groups = append(groups, g)
			}
			sort.Ints(groups)
			for _, g := range groups {
				kws := keywords[g]
				if len(kws) > 10 {
					kws = kws[:10]
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", g, result.GroupNames[g], strings.Join(kws, ", "))
			}
			return tw.Flush()
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list stored analyses, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "SQLite database"},
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(c *cli.Context) error {
			st, err := openStore(c)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListAnalyses(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tCREATED\tNODES\tLINKS\tGROUPS")
			for _, a := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					a.ID, a.File, a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Nodes, a.Links, a.Groups)
			}
			return tw.Flush()
		},
	}
}

func idfCommand() *cli.Command {
	return &cli.Command{
		Name:  "idf",
		Usage: "manage reference corpus statistics",
		Subcommands: []*cli.Command{{
			Name:      "build",
			Usage:     "add the documents under each path to the corpus document frequencies",
			ArgsUsage: "PATH...",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "db", Usage: "SQLite database"},
				&cli.IntFlag{Name: "workers", Value: 4},
			},
			Action: buildIDF,
		}},
	}
}

func buildIDF(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.Wrap(internalerr.ErrInvalidInput, "no corpus paths")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Resources.Database == "" {
		return errors.Wrap(internalerr.ErrStoreUnavailable, "no database configured (use --db)")
	}
	// document frequencies are being rebuilt, not read
	cfg.Resources.IDF = ""
	logger := logrus.StandardLogger()
	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(c.Context)
	if err != nil {
		return err
	}
	defer comp.Close()

	files, err := corpusFiles(c.Args().Slice())
	if err != nil {
		return err
	}

	tokens := make([][]string, len(files))
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(1, c.Int("workers")))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			text := string(data)
			if isHTML(path) {
				if text, err = textclean.StripHTML(strings.NewReader(text)); err != nil {
					return errors.Wrapf(err, "parse %s", path)
				}
			}
			tokens[i] = comp.Segmenter.Segment(textclean.Normalize(text))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, toks := range tokens {
		if err := comp.Store.AddDocument(c.Context, toks); err != nil {
			return err
		}
	}
	total, err := comp.Store.TotalDocs(c.Context)
	if err != nil {
		return err
	}
	logger.WithField("action", "build_idf").
		WithField("added", len(files)).
		WithField("total_docs", total).
		Info("updated corpus document frequencies")
	return nil
}

func corpusFiles(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".txt", ".md", ".html", ".htm":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", root)
		}
	}
	return files, nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
