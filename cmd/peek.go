package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/soundbox/soundbox/internal/serialport"
	"github.com/soundbox/soundbox/internal/wire"
	"github.com/spf13/cobra"
)

// snapshotWait bounds how long peek waits for the board to answer a
// query before giving up.
const snapshotWait = 2 * time.Second

// CreatePeekCmd creates the peek command.
func CreatePeekCmd() *cobra.Command {
	var port string
	var baud int
	var ledArg string
	var query bool

	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Poke at the button board over serial",
		Long: `Opens the board's serial port for a quick look: stream incoming lines to
stdout, send a single LED override, or request a state snapshot. Stop the
trigger daemon first, the port only fits one process.`,
		Run: func(_ *cobra.Command, _ []string) {
			path, err := serialport.Resolve(port)
			if err != nil {
				fmt.Fprintln(os.Stderr, "peek:", err)
				os.Exit(1)
			}
			conn, err := serialport.Open(path, baud)
			if err != nil {
				fmt.Fprintln(os.Stderr, "peek:", err)
				os.Exit(1)
			}
			defer conn.Close()

			switch {
			case ledArg != "":
				err = sendOverride(conn, ledArg)
			case query:
				err = printSnapshot(conn)
			default:
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				fmt.Fprintln(os.Stderr, "listening on", conn.Path())
				err = streamLines(ctx, conn)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "peek:", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Serial device path (empty auto-detects)")
	cmd.Flags().IntVar(&baud, "baud", serialport.DefaultBaud, "Serial line rate")
	cmd.Flags().StringVar(&ledArg, "led", "", "Send one LED override as id:on, id:off or id:clear")
	cmd.Flags().BoolVar(&query, "query", false, "Request a state snapshot and print it")

	return cmd
}

// sendOverride sends a single L line for an id:state argument.
func sendOverride(conn *serialport.Conn, arg string) error {
	idStr, stateStr, found := strings.Cut(arg, ":")
	if !found {
		return fmt.Errorf("want id:state, got %q", arg)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 || id > wire.NumButtons {
		return fmt.Errorf("bad button id %q", idStr)
	}
	var state int
	switch stateStr {
	case "on":
		state = wire.LEDOn
	case "off":
		state = wire.LEDOff
	case "clear":
		state = wire.LEDClear
	default:
		return fmt.Errorf("bad led state %q (want on, off or clear)", stateStr)
	}
	return conn.WriteLine(wire.FormatLED(id, state))
}

// printSnapshot queries the board and prints the first snapshot reply.
// Press traffic arriving in between is skipped, not printed.
func printSnapshot(conn *serialport.Conn) error {
	if err := conn.WriteLine(wire.Query); err != nil {
		return err
	}
	deadline := time.Now().Add(snapshotWait)
	for time.Now().Before(deadline) {
		line, err := conn.ReadLine()
		if errors.Is(err, serialport.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		snap, ok := wire.ParseSnapshot(line)
		if !ok {
			continue
		}
		for _, b := range snap {
			state := "up"
			if b.Pressed {
				state = "down"
			}
			fmt.Printf("button %2d: %s\n", b.ID, state)
		}
		return nil
	}
	return errors.New("no snapshot reply from the board")
}

// streamLines copies board lines to stdout until the context ends.
func streamLines(ctx context.Context, conn *serialport.Conn) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := conn.ReadLine()
		if errors.Is(err, serialport.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Println(line)
	}
}
