package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// pipeOutput streams a context into a CLI player's stdin or an OSS device
type pipeOutput struct {
	backend *BackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes
	pump    *pump

	running    atomic.Bool
	silentMode atomic.Bool
	wg         sync.WaitGroup
}

func openPipe(src *Context, cfg *AudioConfig) (Output, error) {
	backend, err := DetectBackend(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	po := &pipeOutput{backend: backend}

	var writer io.Writer
	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBackendInit, backend.Path, err)
		}
		po.ossFile = f
		writer = f
	} else {
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBackendInit, backend.Name, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrBackendInit, backend.Name, err)
		}
		po.cmd = cmd
		po.stdin = stdin
		writer = stdin

		po.wg.Add(1)
		go po.monitorProcess()
	}

	po.pump = newPump(src, writer, cfg)
	po.running.Store(true)
	po.pump.Start()

	po.wg.Add(1)
	go po.monitorPump()

	log.Printf("audio: streaming to %s (%s)", backend.Name, backend.Path)
	return po, nil
}

// monitorProcess watches for subprocess exit
func (po *pipeOutput) monitorProcess() {
	defer po.wg.Done()

	err := po.cmd.Wait()
	if err != nil && po.running.Load() && po.silentMode.CompareAndSwap(false, true) {
		log.Printf("audio: %s exited: %v", po.backend.Name, err)
	}
}

// monitorPump watches for pipe errors
func (po *pipeOutput) monitorPump() {
	defer po.wg.Done()

	select {
	case err := <-po.pump.Errors():
		if po.silentMode.CompareAndSwap(false, true) {
			log.Printf("audio: %v", err)
		}
	case <-po.pump.done:
	}
}

// Suspend is a no-op: a suspended context already renders silence, keeping the pipe fed
func (po *pipeOutput) Suspend() error { return nil }

func (po *pipeOutput) Resume() error {
	if po.silentMode.Load() {
		return ErrPipeClosed
	}
	return nil
}

// Close terminates the pump and the player
func (po *pipeOutput) Close() error {
	if !po.running.CompareAndSwap(true, false) {
		return nil
	}

	po.pump.Stop()

	if po.stdin != nil {
		po.stdin.Close()
	}
	if po.ossFile != nil {
		po.ossFile.Close()
	}
	if po.cmd != nil && po.cmd.Process != nil {
		po.cmd.Process.Kill()
	}

	po.wg.Wait()
	return nil
}

// nullOutput advances the clock in real time and discards the samples
type nullOutput struct {
	pump   *pump
	closed atomic.Bool
}

func openNull(src *Context, cfg *AudioConfig) Output {
	n := &nullOutput{pump: newPump(src, io.Discard, cfg)}
	n.pump.Start()
	return n
}

func (n *nullOutput) Suspend() error { return nil }
func (n *nullOutput) Resume() error  { return nil }

func (n *nullOutput) Close() error {
	if n.closed.CompareAndSwap(false, true) {
		n.pump.Stop()
	}
	return nil
}
