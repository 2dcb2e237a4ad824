package main

import (
	"bytes"
	"flag"
	"io"
	"log"
	"os"
	"time"

	tty "github.com/mattn/go-tty"
)

func monitorCommand(args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	pty := fs.String("p", "", "pseudo TTY qemu connected the serial port to")
	expect := fs.String("expect", "", "exit successfully once this text is seen")
	timeout := fs.Duration("timeout", 0, "give up after this long, 0 waits forever")
	fs.Parse(args)
	if *pty == "" {
		usage()
	}

	ttyObj, err := tty.OpenDevice(*pty)
	if err != nil {
		log.Fatalf("%s: %v", *pty, err)
	}
	restore := ttyObj.MustRaw()
	defer ttyObj.Close()
	defer restore()

	if *timeout > 0 {
		time.AfterFunc(*timeout, func() {
			restore()
			log.Fatalf("did not see %q within %v", *expect, *timeout)
		})
	}
	found, err := watch(ttyObj.Input(), os.Stdout, []byte(*expect))
	if err != nil && err != io.EOF {
		log.Fatalf("reading %s: %v", *pty, err)
	}
	if *expect != "" && !found {
		log.Fatalf("console closed before %q was seen", *expect)
	}
	if *verbose > 0 {
		log.Printf("console done")
	}
}

// watch copies r to w until r ends or, when expect is not empty, expect has
// gone past. It reports whether expect was seen.
func watch(r io.Reader, w io.Writer, expect []byte) (bool, error) {
	var tail []byte
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
			if len(expect) > 0 {
				tail = append(tail, buf[:n]...)
				if bytes.Contains(tail, expect) {
					return true, nil
				}
				if keep := len(expect) - 1; len(tail) > keep {
					tail = append(tail[:0], tail[len(tail)-keep:]...)
				}
			}
		}
		if err != nil {
			return false, err
		}
	}
}
