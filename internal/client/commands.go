package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-doc-keeper/internal/service"
	"github.com/MKhiriev/go-doc-keeper/models"
)

type command struct {
	usage   string
	minArgs int
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"find":    {usage: "find <collection> [selector] [options]", minArgs: 1, run: (*App).find},
	"findone": {usage: "findone <collection> [selector] [options]", minArgs: 1, run: (*App).findOne},
	"upsert":  {usage: "upsert <collection> <doc> [base]", minArgs: 2, run: (*App).upsert},
	"remove":  {usage: "remove <collection> <id>...", minArgs: 2, run: (*App).remove},
	"upload":  {usage: "upload <collection>...", minArgs: 1, run: (*App).upload},
	"sync":    {usage: "sync <collection>...", minArgs: 1, run: (*App).sync},
}

// Run implements [Client].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}

	a.logger.Debug().Str("command", args[0]).Strs("args", args[1:]).Msg("running command")
	return cmd.run(a, ctx, args[1:])
}

type findOutput struct {
	Final bool              `json:"final"`
	Count int               `json:"count"`
	Docs  []models.Document `json:"docs"`
}

// find prints every delivered result: the interim local one, if any, and
// the final one.
func (a *App) find(ctx context.Context, args []string) error {
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}
	sel, opts, err := parseQuery(args[1:])
	if err != nil {
		return err
	}

	var printErr error
	err = col.Find(ctx, sel, opts, func(r service.Result) {
		if printErr == nil {
			printErr = a.print(findOutput{Final: r.Final, Count: r.Count, Docs: r.Docs})
		}
	})
	if err != nil {
		return err
	}
	return printErr
}

func (a *App) findOne(ctx context.Context, args []string) error {
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}
	sel, opts, err := parseQuery(args[1:])
	if err != nil {
		return err
	}

	var printErr error
	err = col.FindOne(ctx, sel, opts, func(doc models.Document) {
		if printErr == nil {
			printErr = a.print(doc)
		}
	})
	if err != nil {
		return err
	}
	return printErr
}

func (a *App) upsert(ctx context.Context, args []string) error {
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}

	var doc, base models.Document
	if err = decodeArg(args[1], "doc", &doc); err != nil {
		return err
	}
	var bases []models.Document
	if len(args) > 2 {
		if err = decodeArg(args[2], "base", &base); err != nil {
			return err
		}
		bases = []models.Document{base}
	}

	stored, err := col.Upsert(ctx, []models.Document{doc}, bases)
	if err != nil {
		return err
	}
	return a.print(stored[0])
}

func (a *App) remove(ctx context.Context, args []string) error {
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}
	for _, id := range args[1:] {
		if err = col.Remove(ctx, id); err != nil {
			return fmt.Errorf("remove %q: %w", id, err)
		}
	}
	return nil
}

// upload pushes the pending writes of the named collections once.
func (a *App) upload(ctx context.Context, args []string) error {
	for _, name := range args {
		if _, err := a.collection(name); err != nil {
			return err
		}
	}
	return a.db.Upload(ctx)
}

// sync uploads the named collections right away and then on every worker
// tick until ctx is done.
func (a *App) sync(ctx context.Context, args []string) error {
	for _, name := range args {
		if _, err := a.collection(name); err != nil {
			return err
		}
	}

	a.worker.Run(ctx)
	a.worker.Trigger()
	<-ctx.Done()
	a.worker.Stop()
	return nil
}

// parseQuery decodes the optional selector and options operands.
func parseQuery(args []string) (models.Selector, models.FindOptions, error) {
	var (
		sel  models.Selector
		opts models.FindOptions
	)
	if len(args) > 0 {
		if err := decodeArg(args[0], "selector", &sel); err != nil {
			return nil, opts, err
		}
	}
	if len(args) > 1 {
		if err := decodeArg(args[1], "options", &opts); err != nil {
			return nil, opts, err
		}
	}
	return sel, opts, nil
}

func decodeArg(raw, name string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, name, err)
	}
	return nil
}
