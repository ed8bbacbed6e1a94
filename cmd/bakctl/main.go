// Command bakctl is a thin CLI collaborator over pkg/core: it wires
// flag-parsed arguments straight to (*core.Packer).Pack/Unpack/Verify/List
// and prints their results. It does not implement a filter-expression
// language or any interactive UI — the predicate defaults to including
// everything, matching pkg/core's own default.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/asnlsxx/bakctl/pkg/core"
	"github.com/asnlsxx/bakctl/pkg/progress"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "pack":
		err = runPack(os.Args[2:])
	case "unpack":
		err = runUnpack(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "bakctl:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  bakctl pack   [-compress] [-encrypt] [-password P] [-comment C] SOURCE_DIR ARCHIVE")
	fmt.Fprintln(os.Stderr, "  bakctl unpack [-password P] [-no-metadata] ARCHIVE DEST_DIR")
	fmt.Fprintln(os.Stderr, "  bakctl verify ARCHIVE")
	fmt.Fprintln(os.Stderr, "  bakctl list   [-password P] ARCHIVE")
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func runPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	compress := fs.Bool("compress", false, "apply LZW compression to the archive body")
	encrypt := fs.Bool("encrypt", false, "apply AES-256-CBC encryption to the archive body")
	password := fs.String("password", "", "encryption password (required with -encrypt)")
	comment := fs.String("comment", "", "free-text header comment")
	verbose := fs.Bool("v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		printUsage()
		return errors.New("pack requires SOURCE_DIR and ARCHIVE")
	}
	if *encrypt && *password == "" {
		return errors.New("-encrypt requires -password")
	}

	log := zerolog.Nop()
	if *verbose {
		log = newLogger()
	}
	tracker := progress.New(log, 0)
	defer tracker.Stop()

	p := core.NewPacker()
	stats, err := p.Pack(context.Background(), fs.Arg(0), fs.Arg(1),
		core.WithCompress(*compress),
		core.WithEncrypt(*encrypt, *password),
		core.WithComment(*comment),
		core.WithLogger(log),
		core.WithProgress(tracker),
	)
	if err != nil {
		return err
	}
	fmt.Printf("packed %d entries, %d bytes final\n", stats.EntriesWritten, stats.BytesFinal)
	return nil
}

func runUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	password := fs.String("password", "", "decryption password (required for encrypted archives)")
	noMetadata := fs.Bool("no-metadata", false, "skip restoring permissions/ownership/timestamps")
	verbose := fs.Bool("v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		printUsage()
		return errors.New("unpack requires ARCHIVE and DEST_DIR")
	}

	log := zerolog.Nop()
	if *verbose {
		log = newLogger()
	}
	tracker := progress.New(log, 0)
	defer tracker.Stop()

	p := core.NewPacker()
	stats, err := p.Unpack(context.Background(), fs.Arg(0), fs.Arg(1),
		core.WithPassword(*password),
		core.WithRestoreMetadata(!*noMetadata),
		core.WithUnpackLogger(log),
		core.WithUnpackProgress(tracker),
	)
	if err != nil {
		return err
	}
	fmt.Printf("restored %d entries (%d metadata warnings)\n", stats.EntriesRestored, stats.MetadataWarnings)
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		printUsage()
		return errors.New("verify requires ARCHIVE")
	}
	p := core.NewPacker()
	if err := p.Verify(context.Background(), fs.Arg(0)); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	password := fs.String("password", "", "decryption password (required for encrypted archives)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		printUsage()
		return errors.New("list requires ARCHIVE")
	}
	p := core.NewPacker()
	return p.List(context.Background(), fs.Arg(0), func(e core.ListEntry) error {
		switch {
		case e.IsHardlinkPointer:
			fmt.Printf("%-9s %10d %s -> %s\n", e.Kind, e.Size, e.RelPath, e.LinkTarget)
		case e.Kind == core.KindSymlink:
			fmt.Printf("%-9s %10d %s -> %s\n", e.Kind, e.Size, e.RelPath, e.LinkTarget)
		default:
			fmt.Printf("%-9s %10d %s\n", e.Kind, e.Size, e.RelPath)
		}
		return nil
	}, core.WithListPassword(*password))
}
