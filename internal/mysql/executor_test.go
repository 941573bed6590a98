package mysql

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

type fakeRunner struct {
	out   string
	err   error
	calls int
	got   Command
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	f.calls++
	f.got = cmd
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(f.out), f.err
}

func TestCLIExecutorSuccess(t *testing.T) {
	runner := &fakeRunner{out: "id\tname\n1\tAlice\n"}
	exec := &CLIExecutor{ClientPath: "/usr/bin/mysql", Runner: runner}

	res := exec.Execute(context.Background(), "SELECT id, name FROM users", ConnectionOptions{Host: "h", User: "u", Database: "shop"})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.RowCount != 1 {
		t.Errorf("rowCount = %d", res.RowCount)
	}
	if runner.got.Path != "/usr/bin/mysql" {
		t.Errorf("client path = %q", runner.got.Path)
	}
	last := runner.got.Args[len(runner.got.Args)-1]
	if last != "--execute=SELECT id, name FROM users" {
		t.Errorf("sql should be passed verbatim in the last argument, got %q", last)
	}
}

func TestCLIExecutorClientErrorWithExitStatus(t *testing.T) {
	runner := &fakeRunner{
		out: "ERROR 1049 (42000): Unknown database 'nope'\n",
		err: errors.New("exit status 1"),
	}
	exec := &CLIExecutor{Runner: runner}

	res := exec.Execute(context.Background(), "SELECT 1", ConnectionOptions{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Unknown database 'nope'" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestCLIExecutorProcessFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New(`exec: "mysql": executable file not found in $PATH`)}
	exec := &CLIExecutor{Runner: runner}

	res := exec.Execute(context.Background(), "SELECT 1", ConnectionOptions{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "executable file not found") {
		t.Errorf("error = %q", res.Error)
	}
	if res.Rows == nil {
		t.Error("failed results should still carry an empty rows slice")
	}
}

func TestCLIExecutorProcessFailureIncludesOutput(t *testing.T) {
	runner := &fakeRunner{out: "mysql: unknown option '--bogus'\n", err: errors.New("exit status 7")}
	res := (&CLIExecutor{Runner: runner}).Execute(context.Background(), "SELECT 1", ConnectionOptions{})
	if res.Error != "exit status 7: mysql: unknown option '--bogus'" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestCLIExecutorTimeout(t *testing.T) {
	runner := &fakeRunner{block: true}
	exec := &CLIExecutor{Runner: runner, Timeout: 20 * time.Millisecond}

	done := make(chan QueryResult, 1)
	go func() {
		done <- exec.Execute(context.Background(), "SELECT SLEEP(100)", ConnectionOptions{})
	}()

	select {
	case res := <-done:
		if res.Success {
			t.Fatal("expected timeout failure")
		}
		if !strings.Contains(res.Error, "deadline exceeded") {
			t.Errorf("error = %q", res.Error)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not honour its timeout")
	}
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 5}
	n, err := b.Write([]byte("abc"))
	if n != 3 || err != nil {
		t.Fatalf("write = %d, %v", n, err)
	}
	n, err = b.Write([]byte("defgh"))
	if n != 5 || err != nil {
		t.Fatalf("overflowing write should report full length, got %d, %v", n, err)
	}
	if b.String() != "abcde" {
		t.Errorf("buffer = %q", b.String())
	}
	if !b.overflow {
		t.Error("expected overflow flag")
	}
}

func TestExecRunnerOutputLimit(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	r := ExecRunner{MaxOutputBytes: 4}
	out, err := r.Run(context.Background(), Command{Path: sh, Args: []string{"-c", "printf 0123456789"}})
	if !errors.Is(err, ErrOutputTooLarge) {
		t.Fatalf("expected ErrOutputTooLarge, got %v", err)
	}
	if string(out) != "0123" {
		t.Errorf("out = %q", out)
	}
}

func TestExecRunnerMergesStderr(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	out, err := ExecRunner{}.Run(context.Background(), Command{Path: sh, Args: []string{"-c", "echo 'ERROR 1045 (28000): denied' 1>&2; exit 1"}})
	if err == nil {
		t.Fatal("expected exit error")
	}
	if msg, ok := ClientError(string(out)); !ok || msg != "denied" {
		t.Errorf("stderr not captured: %q", out)
	}
}
