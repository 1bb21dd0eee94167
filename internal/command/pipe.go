package command

import (
	"context"
	"fmt"
	"os/exec"
)

// Run starts cmd and waits for it, folding the stderr tail into any failure.
// The command should be created with exec.CommandContext so cancellation
// kills it.
func Run(ctx context.Context, cmd *exec.Cmd, tail *Tail) error {
	name := cmd.Args[0]
	if cmd.Stderr == nil && tail != nil {
		cmd.Stderr = tail.Writer(name)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s failed to start: %w", name, err)
	}
	if err := cmd.Wait(); err != nil {
		return wrapExit(ctx, name, err, tail)
	}
	return nil
}

// RunPipe wires producer's stdout into consumer's stdin and runs both to
// completion. Both commands must be created with the same context so a
// timeout kills the pair together. Either process exiting nonzero fails the
// pipe with the combined stderr tail attached.
func RunPipe(ctx context.Context, producer, consumer *exec.Cmd, tail *Tail) error {
	stdout, err := producer.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s stdout pipe: %w", producer.Args[0], err)
	}
	consumer.Stdin = stdout
	if tail != nil {
		if producer.Stderr == nil {
			producer.Stderr = tail.Writer(producer.Args[0])
		}
		if consumer.Stderr == nil {
			consumer.Stderr = tail.Writer(consumer.Args[0])
		}
	}

	if err := producer.Start(); err != nil {
		return fmt.Errorf("%s failed to start: %w", producer.Args[0], err)
	}
	if err := consumer.Start(); err != nil {
		if producer.Process != nil {
			_ = producer.Process.Kill()
		}
		_ = producer.Wait()
		return fmt.Errorf("%s failed to start: %w", consumer.Args[0], err)
	}

	consumerErr := consumer.Wait()
	// Unblock the producer if the consumer bailed before draining the pipe.
	_ = stdout.Close()
	producerErr := producer.Wait()

	if consumerErr != nil {
		return wrapExit(ctx, consumer.Args[0], consumerErr, tail)
	}
	if producerErr != nil {
		return wrapExit(ctx, producer.Args[0], producerErr, tail)
	}
	return nil
}

func wrapExit(ctx context.Context, name string, err error, tail *Tail) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if tail != nil {
		if text := tail.String(); text != "" {
			return fmt.Errorf("%s: %w\n%s", name, err, text)
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
