// Command teensy-loader programs boards running the HalfKay bootloader.
//
// Usage:
//
//	teensy-loader --mcu=<name> [-w] [-r] [-s] [-n] [-b] [-v] [--progress] <file.hex>
//	teensy-loader --list-mcus
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-halfkay/bootloader"
	"github.com/moffa90/go-halfkay/protocol"
	"github.com/moffa90/go-halfkay/usbdev"
)

type options struct {
	mcu        string
	listMCUs   bool
	wait       bool
	hardReboot bool
	softReboot bool
	noReboot   bool
	bootOnly   bool
	verbose    bool
	progress   bool
}

// openTransport returns the USB transport and its cleanup; replaced in tests.
var openTransport = func() (bootloader.Transport, func() error) {
	t := usbdev.NewTransport()
	return t, t.Close
}

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage")

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "teensy-loader --mcu=<name> [flags] <file.hex>",
		Short: "Program a board running the HalfKay bootloader",
		Long: `Program a Teensy or compatible board running the HalfKay USB bootloader.

The hex file is read before any USB access. Use -w to wait for the board,
-r to reset it through a rebootor, or -s to ask serial firmware to reboot.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.listMCUs {
				return listMCUs(cmd.OutOrStdout())
			}
			filename := ""
			if len(args) > 0 {
				filename = args[0]
			}
			return run(cmd.Context(), cmd.ErrOrStderr(), opts, filename)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.mcu, "mcu", "", "microcontroller or board name (see --list-mcus)")
	flags.BoolVar(&opts.listMCUs, "list-mcus", false, "list supported microcontrollers")
	flags.BoolVarP(&opts.wait, "wait", "w", false, "wait for the device to appear")
	flags.BoolVarP(&opts.hardReboot, "hard-reboot", "r", false, "use a rebootor to reset the board")
	flags.BoolVarP(&opts.softReboot, "soft-reboot", "s", false, "soft reboot a board running USB serial firmware")
	flags.BoolVarP(&opts.noReboot, "no-reboot", "n", false, "do not reboot after programming")
	flags.BoolVarP(&opts.bootOnly, "boot-only", "b", false, "boot the application already in flash")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar")

	return cmd
}

func run(ctx context.Context, stderr io.Writer, opts options, filename string) error {
	if opts.mcu == "" {
		return fmt.Errorf("%w: mcu type must be specified", errUsage)
	}
	if filename == "" && !opts.bootOnly {
		return fmt.Errorf("%w: filename must be specified", errUsage)
	}

	profile, err := protocol.LookupProfile(opts.mcu)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	logger := newLogger(stderr, opts.verbose)
	logger.Info("teensy-loader", "mcu", profile.Name, "code_size", profile.CodeSize, "block_size", profile.BlockSize)

	progOpts := []bootloader.Option{
		bootloader.WithLogger(logger),
		bootloader.WithWaitForDevice(opts.wait),
		bootloader.WithHardReboot(opts.hardReboot),
		bootloader.WithSoftReboot(opts.softReboot),
		bootloader.WithRebootAfterProgramming(!opts.noReboot),
		bootloader.WithSerialRebooter(usbdev.NewSerialRebooter()),
	}
	if opts.progress {
		bar := newProgressBar(stderr)
		progOpts = append(progOpts, bootloader.WithProgressCallback(bar.update))
	}

	transport, closeTransport := openTransport()
	defer func() {
		if err := closeTransport(); err != nil {
			logger.Debug("Closing USB failed", "error", err)
		}
	}()

	prog := bootloader.New(transport, profile, progOpts...)
	if opts.bootOnly {
		return prog.Boot(ctx)
	}
	return prog.Program(ctx, filename)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.err.Render("error:"), err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
		stop()
		os.Exit(1)
	}
}
