package main

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"spritec/ast"
	"spritec/common"
	"spritec/config"
	"spritec/graph"
	"spritec/server"
	"spritec/snapshot"
	"spritec/state"
	"spritec/transform"
	"spritec/translate"
)

// output returns file named fname or STDOUT when fname is empty.
func output(fname string) (io.WriteCloser, string, error) {
	if len(fname) == 0 {
		return nopCloser{os.Stdout}, "STDOUT", nil
	}
	out, err := os.Create(fname)
	if err != nil {
		return nil, fname, fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	return out, fname, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeOutput(fname string, data []byte) (err error) {
	out, _, err := output(fname)
	if err != nil {
		return err
	}
	defer func() {
		if er := out.Close(); er != nil && err == nil {
			err = er
		}
	}()
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

func runPull(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pull")

	u := cmp.Or(cmd.Args().First(), env.Cfg.Site.Source())
	if len(u) == 0 {
		return errors.New("no site URL has been specified, pass it on command line or set site.source_url in configuration")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many URLs", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	env.StableVersion = cmp.Or(cmd.String("stable"), env.Cfg.Site.StableVersion)

	log.Info("Pulling site", zap.String("url", u), zap.Int("parallel", env.Cfg.Fetch.Parallel))
	g, err := env.Resolver().Resolve(ctx, u, graph.Graph{})
	if err != nil {
		return fmt.Errorf("unable to download site: %w", err)
	}

	dir := env.Cfg.Site.Directory
	version, err := snapshot.Save(dir, g, snapshot.SaveOptions{EntryURL: u, StableVersion: env.StableVersion}, env.MarkupParser(), log)
	if err != nil {
		return fmt.Errorf("unable to save site: %w", err)
	}
	if err := env.Rpt.StoreCopy("snapshot", filepath.Join(dir, version)); err != nil {
		log.Warn("Unable to store snapshot in debug report", zap.Error(err))
	}
	if err := recordPull(dir, snapshot.Pull{Version: version, URL: u, PulledAt: time.Now(), Resources: len(g)}); err != nil {
		log.Warn("Unable to update pull history", zap.Error(err))
	}

	log.Info("Version saved", zap.String("version", version), zap.Int("resources", len(g)), zap.Duration("elapsed", env.Uptime()))
	return nil
}

func recordPull(dir string, p snapshot.Pull) (err error) {
	h, err := snapshot.OpenHistory(dir)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, h.Close())
	}()
	return h.Record(p)
}

func runTypedDefinitions(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	fw, err := framework(cmd, env)
	if err != nil {
		return err
	}
	return snapshot.BuildTypedDefinitions(env.Cfg.Site.Directory, fw, env.MarkupParser(), env.Log,
		env.TranslateOptions(snapshot.MainSprite)...)
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	fw, err := framework(cmd, env)
	if err != nil {
		return err
	}
	typed := cmd.Bool("typed")

	deps, err := compile(env, log, src, dst, fw, typed)
	if err != nil || !cmd.Bool("watch") {
		return err
	}

	files := []string{src}
	for _, href := range deps {
		if u, err := url.Parse(href); err == nil && u.Scheme == "" && u.Host == "" && u.Path != "" {
			files = append(files, filepath.Join(filepath.Dir(src), filepath.FromSlash(u.Path)))
		}
	}
	log.Info("Watching for changes, interrupt to stop", zap.Strings("files", files))
	return transform.Watch(ctx, files, log, func() {
		if _, err := compile(env, log, src, dst, fw, typed); err != nil {
			log.Error("Compilation failed", zap.Error(err))
		}
	})
}

// compile translates src into dst and returns stylesheets src depends on.
func compile(env *state.LocalEnv, log *zap.Logger, src, dst string, fw common.Framework, typed bool) ([]string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	opts := env.TranslateOptions(filepath.Base(src))

	var (
		code     string
		deps     []string
		warnings []error
	)
	if typed {
		root, err := env.MarkupParser().Parse(data, src)
		if err != nil {
			return nil, fmt.Errorf("unable to parse source: %w", err)
		}
		c, err := translate.TypedDefinition(root, fw, opts...)
		if err != nil {
			return nil, err
		}
		code, warnings = c.Buffer, c.Warnings
	} else {
		res, err := transform.Source(data, fw, env.MarkupParser(), opts...)
		if err != nil {
			return nil, err
		}
		code, deps, warnings = res.Code, res.Dependencies, res.Warnings
		if len(deps) > 0 {
			log.Debug("Stylesheet dependencies", zap.Strings("href", deps))
		}
	}
	for _, w := range warnings {
		log.Warn("Translation warning", zap.String("source", src), zap.Error(w))
	}

	log.Info("Writing", zap.String("source", src), zap.String("destination", cmp.Or(dst, "STDOUT")))
	return deps, writeOutput(dst, []byte(code))
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("serve")

	fw, err := framework(cmd, env)
	if err != nil {
		return err
	}
	dir := env.Cfg.Site.Directory
	srv := &http.Server{
		Addr:              cmp.Or(cmd.String("listen"), env.Cfg.Serve.Listen),
		Handler:           server.New(dir, fw, env.MarkupParser(), env.Log, env.TranslateOptions(snapshot.MainSprite)...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()
	log.Info("Serving versions", zap.String("directory", dir), zap.String("address", srv.Addr), zap.Stringer("framework", fw))

	select {
	case err := <-done:
		return fmt.Errorf("unable to serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(sctx)
	if er := <-done; er != nil && !errors.Is(er, http.ErrServerClosed) {
		err = multierr.Append(err, er)
	}
	return err
}

func runVersions(ctx context.Context, _ *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	dir := env.Cfg.Site.Directory

	versions, err := snapshot.Versions(dir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		env.Log.Info("No versions found", zap.String("directory", dir))
		return nil
	}
	marks := make(map[string][]string)
	for _, link := range []string{snapshot.Latest, snapshot.Stable} {
		target, err := snapshot.LinkTarget(dir, link)
		if err != nil {
			return err
		}
		marks[target] = append(marks[target], link)
	}

	h, err := snapshot.OpenHistory(dir)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, h.Close())
	}()
	pulls, err := h.Last()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tLINKS\tPULLED\tRESOURCES\tURL")
	for _, v := range versions {
		pulled, resources, from := "-", "-", "-"
		if p, ok := pulls[v]; ok {
			pulled, resources, from = p.PulledAt.Local().Format(time.DateTime), strconv.Itoa(p.Resources), p.URL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v, cmp.Or(strings.Join(marks[v], ","), "-"), pulled, resources, from)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeOutput("", buf.Bytes())
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}

	show := ast.Dump
	if cmd.Bool("markup") {
		show = ast.Render
	}

	var dump strings.Builder
	switch {
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		g, err := env.Resolver().Resolve(ctx, src, graph.Graph{})
		if err != nil {
			return fmt.Errorf("unable to download site: %w", err)
		}
		bundles, err := graph.Bundle(g, env.MarkupParser(), env.CSSParser())
		if err != nil {
			return err
		}
		for _, b := range bundles {
			dump.WriteString(show(b))
			dump.WriteString("\n")
			for _, cs := range translate.ComponentStyles(b) {
				fmt.Fprintf(&dump, "/* %s: %d matching rule(s) */\n", cs.ClassName, len(cs.Rules))
				dump.WriteString(cs.StyleSheet().String())
			}
		}
	case strings.EqualFold(filepath.Ext(src), ".css"):
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("unable to read source: %w", err)
		}
		sheet, err := env.CSSParser().Parse(data, src)
		if err != nil {
			return fmt.Errorf("unable to parse stylesheet: %w", err)
		}
		if cmd.Bool("markup") {
			dump.WriteString(sheet.String())
		} else {
			dump.WriteString(ast.Dump(ast.NewStyleElement(sheet)))
		}
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("unable to read source: %w", err)
		}
		root, err := env.MarkupParser().Parse(data, src)
		if err != nil {
			return fmt.Errorf("unable to parse source: %w", err)
		}
		dump.WriteString(show(root))
	}
	return writeOutput("", []byte(dump.String()))
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err  error
		data []byte
		kind string
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", cmp.Or(fname, "STDOUT")))
	return writeOutput(fname, data)
}
