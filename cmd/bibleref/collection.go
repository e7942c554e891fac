package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/api"
	"github.com/FocuswithJustin/bibleref/internal/archive"
	"github.com/FocuswithJustin/bibleref/internal/plan"
	"github.com/FocuswithJustin/bibleref/internal/store"
	"github.com/FocuswithJustin/bibleref/internal/validation"
)

// CollectionGroup contains collection operations. Collections are named
// by ID or name.
type CollectionGroup struct {
	Create CollectionCreateCmd `cmd:"" help:"Create an empty collection"`
	List   CollectionListCmd   `cmd:"" help:"List collections"`
	Show   CollectionShowCmd   `cmd:"" help:"Show the references of a collection"`
	Add    CollectionAddCmd    `cmd:"" help:"Add a reference to a collection"`
	Remove CollectionRemoveCmd `cmd:"" help:"Remove an entry from a collection"`
	Delete CollectionDeleteCmd `cmd:"" help:"Delete a collection and its entries"`
	Export CollectionExportCmd `cmd:"" help:"Write a collection to a .refs.tar.xz archive"`
	Import CollectionImportCmd `cmd:"" help:"Create a collection from a .refs.tar.xz archive"`
	Plan   CollectionPlanCmd   `cmd:"" help:"Create a collection from a YAML reading plan"`
}

// withStore opens the store for the duration of f.
func withStore(g *Globals, f func(context.Context, *store.Store) error) error {
	ctx := context.Background()
	st, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return f(ctx, st)
}

// CollectionCreateCmd creates a collection.
type CollectionCreateCmd struct {
	Name        string `arg:"" help:"Collection name"`
	Description string `short:"d" help:"Description"`
}

func (c *CollectionCreateCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.CreateCollection(ctx, c.Name, c.Description)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Created collection %s (%s)\n", col.Name, col.ID)
		return nil
	})
}

// CollectionListCmd lists collections.
type CollectionListCmd struct{}

func (c *CollectionListCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		list, err := st.ListCollections(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tREFERENCES\tCREATED\tID")
		for _, col := range list {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", col.Name, col.Count, col.CreatedAt.Format("2006-01-02"), col.ID)
		}
		return tw.Flush()
	})
}

// CollectionShowCmd prints a collection.
type CollectionShowCmd struct {
	Collection string `arg:"" help:"Collection ID or name"`
	Overlaps   string `help:"Only show entries sharing a verse with this reference"`
	JSON       bool   `help:"Print entries as JSON"`
}

func (c *CollectionShowCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.Resolve(ctx, c.Collection)
		if err != nil {
			return err
		}

		var entries []store.Entry
		if c.Overlaps != "" {
			ref, err := passage.FromString(c.Overlaps)
			if err != nil {
				return err
			}
			entries, err = st.FindOverlapping(ctx, col.ID, ref)
			if err != nil {
				return err
			}
		} else if entries, err = st.ListReferences(ctx, col.ID); err != nil {
			return err
		}

		if c.JSON {
			infos := make([]api.EntryInfo, 0, len(entries))
			for _, e := range entries {
				infos = append(infos, api.EntryInfo{ID: e.ID, Reference: api.NewReferenceInfo(e.Reference), Note: e.Note, CreatedAt: e.CreatedAt})
			}
			return writeJSON(infos)
		}

		fmt.Fprintf(stdout, "%s (%d references)\n", col.Name, col.Count)
		if col.Description != "" {
			fmt.Fprintln(stdout, col.Description)
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Reference, e.Note, e.ID)
		}
		return tw.Flush()
	})
}

// CollectionAddCmd adds a reference.
type CollectionAddCmd struct {
	Collection string   `arg:"" help:"Collection ID or name"`
	Text       []string `arg:"" help:"Reference text"`
	Note       string   `short:"n" help:"Note stored with the reference"`
}

func (c *CollectionAddCmd) Run(g *Globals) error {
	ref, err := passage.FromString(strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.Resolve(ctx, c.Collection)
		if err != nil {
			return err
		}
		e, err := st.AddReference(ctx, col.ID, ref, c.Note)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added %s to %s (%s)\n", ref, col.Name, e.ID)
		return nil
	})
}

// CollectionRemoveCmd removes an entry.
type CollectionRemoveCmd struct {
	Collection string `arg:"" help:"Collection ID or name"`
	Entry      string `arg:"" help:"Entry ID"`
}

func (c *CollectionRemoveCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.Resolve(ctx, c.Collection)
		if err != nil {
			return err
		}
		if err := st.RemoveReference(ctx, col.ID, c.Entry); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %s from %s\n", c.Entry, col.Name)
		return nil
	})
}

// CollectionDeleteCmd deletes a collection.
type CollectionDeleteCmd struct {
	Collection string `arg:"" help:"Collection ID or name"`
}

func (c *CollectionDeleteCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.Resolve(ctx, c.Collection)
		if err != nil {
			return err
		}
		if err := st.DeleteCollection(ctx, col.ID); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted collection %s\n", col.Name)
		return nil
	})
}

// CollectionExportCmd writes an archive.
type CollectionExportCmd struct {
	Collection string `arg:"" help:"Collection ID or name"`
	Out        string `short:"o" help:"Output path (default <name>.refs.tar.xz)" type:"path"`
}

func (c *CollectionExportCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.Resolve(ctx, c.Collection)
		if err != nil {
			return err
		}
		entries, err := st.ListReferences(ctx, col.ID)
		if err != nil {
			return err
		}

		ac := archive.Collection{Name: col.Name, Description: col.Description, CreatedAt: col.CreatedAt}
		for _, e := range entries {
			ac.Items = append(ac.Items, archive.Item{Reference: e.Reference, Note: e.Note})
		}
		out := c.Out
		if out == "" {
			out = archive.FileName(col.Name)
		}
		if err := validation.ValidatePath(out); err != nil {
			return errors.NewValidation("out", err.Error())
		}
		if err := archive.WriteFile(out, ac); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported %d references to %s\n", len(ac.Items), out)
		return nil
	})
}

// CollectionImportCmd reads an archive into a new collection.
type CollectionImportCmd struct {
	Path string `arg:"" help:"Archive path" type:"existingfile"`
	Name string `help:"Collection name (default: name stored in the archive)"`
}

func (c *CollectionImportCmd) Run(g *Globals) error {
	ac, err := archive.ReadFile(c.Path)
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = ac.Name
	}
	if name == "" {
		name = archive.NameFromFile(c.Path)
	}
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.CreateCollection(ctx, name, ac.Description)
		if err != nil {
			return err
		}
		for _, it := range ac.Items {
			if _, err := st.AddReference(ctx, col.ID, it.Reference, it.Note); err != nil {
				return err
			}
		}
		fmt.Fprintf(stdout, "Imported %d references into %s\n", len(ac.Items), col.Name)
		return nil
	})
}

// CollectionPlanCmd imports a reading plan. Readings that do not resolve
// are reported and skipped.
type CollectionPlanCmd struct {
	Path string `arg:"" help:"YAML reading plan" type:"existingfile"`
	Name string `help:"Collection name (default: plan name)"`
}

func (c *CollectionPlanCmd) Run(g *Globals) error {
	p, err := plan.Load(c.Path)
	lineErrs := plan.LineErrors(err)
	if err != nil && len(lineErrs) == 0 {
		return err
	}
	for _, le := range lineErrs {
		fmt.Fprintf(os.Stderr, "%s: %v\n", c.Path, le)
	}
	if len(p.Readings) == 0 {
		return fmt.Errorf("%s: no readings resolved", c.Path)
	}

	name := c.Name
	if name == "" {
		name = p.Name
	}
	return withStore(g, func(ctx context.Context, st *store.Store) error {
		col, err := st.CreateCollection(ctx, name, p.Description)
		if err != nil {
			return err
		}
		for _, r := range p.Readings {
			if _, err := st.AddReference(ctx, col.ID, r.Reference, r.Text); err != nil {
				return err
			}
		}
		fmt.Fprintf(stdout, "Imported %d readings into %s (%d skipped)\n", len(p.Readings), col.Name, len(lineErrs))
		return nil
	})
}
