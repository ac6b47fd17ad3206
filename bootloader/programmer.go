package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-halfkay/ihex"
	"github.com/moffa90/go-halfkay/protocol"
)

// Programmer orchestrates a HalfKay programming run: it reads the hex file,
// finds the bootloader (rebooting the board into it if asked), writes every
// non-empty block and starts the new application.
//
// A Programmer performs one run at a time and is not safe for concurrent use.
type Programmer struct {
	profile protocol.Profile
	config  Config
	image   *ihex.Image
	session *Session
	start   time.Time
}

// New creates a Programmer for the given target profile.
//
// Example:
//
//	profile, _ := protocol.LookupProfile("TEENSY40")
//	prog := bootloader.New(usbdev.NewTransport(), profile,
//	    bootloader.WithWaitForDevice(true),
//	    bootloader.WithProgressCallback(progressFunc),
//	)
func New(transport Transport, profile protocol.Profile, opts ...Option) *Programmer {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		profile: profile,
		config:  cfg,
		image:   ihex.NewImage(),
		session: newSession(transport, cfg),
	}
}

// Profile returns the target profile.
func (p *Programmer) Profile() protocol.Profile {
	return p.profile
}

// Program performs the complete programming sequence:
//  1. Read the hex file (all parse errors surface before any USB access)
//  2. Find the bootloader, rebooting or waiting as configured
//  3. Read the hex file again if the device had to be waited for
//  4. Write the first block and every later block holding data
//  5. Boot the application unless disabled
//
// Only the device wait and the gaps between blocks observe ctx.
//
// Example:
//
//	err := prog.Program(context.Background(), "blink.hex")
func (p *Programmer) Program(ctx context.Context, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename must be specified")
	}
	if _, err := protocol.Classify(p.profile); err != nil {
		return err
	}

	p.start = time.Now()

	if err := p.readFile(filename); err != nil {
		return err
	}

	waited, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer p.session.Close()

	if waited {
		if err := p.readFile(filename); err != nil {
			return err
		}
	}

	p.logInfo("Programming", "mcu", p.profile.Name)
	writeSize, err := p.writeBlocks(ctx)
	if err != nil {
		return err
	}

	if p.config.RebootAfterProgramming {
		p.reportProgress(Progress{
			Phase:       PhaseBooting,
			CodeSize:    p.profile.CodeSize,
			Percentage:  100,
			ElapsedTime: time.Since(p.start),
		})
		// The board resets as soon as it accepts the boot block, so a failure
		// here does not mean the firmware was not written.
		if err := p.session.Boot(writeSize); err != nil {
			p.logError("Boot failed", "error", err)
		}
	}

	p.reportProgress(Progress{
		Phase:       PhaseComplete,
		CodeSize:    p.profile.CodeSize,
		Percentage:  100,
		ElapsedTime: time.Since(p.start),
	})
	p.logInfo("Programming completed", "duration", time.Since(p.start))
	return nil
}

// Boot finds the bootloader and makes it start the application already in
// flash. No hex file is read and exactly one block is written.
//
// Example:
//
//	err := prog.Boot(context.Background())
func (p *Programmer) Boot(ctx context.Context) error {
	p.start = time.Now()

	if _, err := p.connect(ctx); err != nil {
		return err
	}
	defer p.session.Close()

	p.reportProgress(Progress{
		Phase:       PhaseBooting,
		CodeSize:    p.profile.CodeSize,
		ElapsedTime: time.Since(p.start),
	})
	if err := p.session.Boot(protocol.WriteSize(p.profile)); err != nil {
		return err
	}

	p.reportProgress(Progress{
		Phase:       PhaseComplete,
		CodeSize:    p.profile.CodeSize,
		Percentage:  100,
		ElapsedTime: time.Since(p.start),
	})
	return nil
}

// readFile loads filename into the image.
func (p *Programmer) readFile(filename string) error {
	p.reportProgress(Progress{
		Phase:       PhaseReading,
		CodeSize:    p.profile.CodeSize,
		ElapsedTime: time.Since(p.start),
	})

	target := ihex.Target{CodeSize: p.profile.CodeSize, BlockSize: p.profile.BlockSize}
	n, err := ihex.Load(filename, p.image, target)
	if err != nil {
		return fmt.Errorf("error reading intel hex file %q: %w", filename, err)
	}

	usage := 0.0
	if p.profile.CodeSize > 0 {
		usage = float64(n) / float64(p.profile.CodeSize) * 100
	}
	p.logInfo("Read hex file",
		"file", filename,
		"bytes", n,
		"usage", fmt.Sprintf("%.1f%%", usage))

	p.reportProgress(Progress{
		Phase:       PhaseReading,
		CodeSize:    p.profile.CodeSize,
		BytesRead:   n,
		ElapsedTime: time.Since(p.start),
	})
	return nil
}

// connect opens the bootloader. A hard reboot is tried at most once and a
// soft reboot at most once; either turns on waiting. It reports whether it
// had to wait for the device to appear.
func (p *Programmer) connect(ctx context.Context) (bool, error) {
	hard := p.config.HardReboot
	soft := p.config.SoftReboot
	wait := p.config.WaitForDevice
	waited := false

	for {
		ok, err := p.session.Open()
		if ok {
			p.logInfo("Found HalfKay bootloader")
			return waited, nil
		}
		if err != nil {
			p.logDebug("Bootloader present but not usable", "error", err)
		}

		if hard {
			if rerr := p.session.HardReboot(); rerr != nil {
				p.logError("Unable to hard reboot", "error", rerr)
			}
			hard = false
			wait = true
		}
		if soft {
			if rerr := p.session.SoftReboot(); rerr != nil {
				p.logError("Unable to soft reboot", "error", rerr)
			}
			soft = false
			wait = true
		}

		if !wait {
			return false, &DeviceNotFoundError{ID: protocol.Bootloader, Err: err}
		}

		if !waited {
			p.logInfo("Waiting for device", "hint", "try pressing the reset button")
			p.reportProgress(Progress{
				Phase:       PhaseWaiting,
				CodeSize:    p.profile.CodeSize,
				ElapsedTime: time.Since(p.start),
			})
			waited = true
		}

		if err := p.wait(ctx); err != nil {
			return waited, err
		}
	}
}

// wait sleeps for one poll interval or until ctx is done.
func (p *Programmer) wait(ctx context.Context) error {
	timer := time.NewTimer(p.config.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for device: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// writeBlocks writes the image and returns the size of the last write.
// The first block is always written so the chip is erased; later blocks
// are skipped when they hold no data or only erased bytes.
func (p *Programmer) writeBlocks(ctx context.Context) (int, error) {
	codeSize := p.profile.CodeSize
	blockSize := p.profile.BlockSize

	writeSize := protocol.WriteSize(p.profile)
	written, skipped := 0, 0
	first := true

	for addr := 0; addr < codeSize; addr += blockSize {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("programming cancelled at 0x%X: %w", addr, err)
		}

		if !first && (!p.image.BytesInRange(addr, addr+blockSize-1) || p.image.IsBlank(addr, blockSize)) {
			skipped++
			continue
		}

		block, err := protocol.EncodeBlock(p.image, addr, p.profile)
		if err != nil {
			return 0, err
		}

		timeout := p.config.BlockTimeout
		if first {
			timeout = p.config.FirstBlockTimeout
		}

		p.logDebug("Writing block", "addr", fmt.Sprintf("0x%06X", addr), "size", block.Len())
		if err := p.session.Write(block.Bytes(), timeout); err != nil {
			return 0, fmt.Errorf("error writing block at 0x%X: %w", addr, err)
		}

		writeSize = block.Len()
		first = false
		written++

		p.reportProgress(Progress{
			Phase:         PhaseProgramming,
			Address:       addr,
			CodeSize:      codeSize,
			BlocksWritten: written,
			BlocksSkipped: skipped,
			Percentage:    float64(min(addr+blockSize, codeSize)) / float64(codeSize) * 100,
			ElapsedTime:   time.Since(p.start),
		})
	}

	p.logInfo("Blocks written", "written", written, "skipped", skipped)
	return writeSize, nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
