package tests

import (
	"context"
	"errors"
	"net"
	"time"
)

var (
	ErrTimeout = errors.New("timeout")
)

// RetryUntilTimeout retries the passed in function until it reports no retry,
// or until the context expires
func RetryUntilTimeout(ctx context.Context, f func() (interface{}, bool)) (interface{}, error) {
	type result struct {
		data interface{}
		err  error
	}

	resCh := make(chan result, 1)

	go func() {
		defer close(resCh)

		for {
			select {
			case <-ctx.Done():
				resCh <- result{nil, ErrTimeout}

				return
			default:
				res, retry := f()
				if !retry {
					resCh <- result{res, nil}

					return
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()

	res := <-resCh

	return res.data, res.err
}

// GetFreePort asks the kernel for a free open port that is ready to use
func GetFreePort() (port int, err error) {
	var addr *net.TCPAddr

	if addr, err = net.ResolveTCPAddr("tcp", "localhost:0"); err == nil {
		var l *net.TCPListener

		if l, err = net.ListenTCP("tcp", addr); err == nil {
			defer func(l *net.TCPListener) {
				_ = l.Close()
			}(l)

			netAddr, ok := l.Addr().(*net.TCPAddr)
			if !ok {
				return 0, errors.New("invalid type assert to TCPAddr")
			}

			return netAddr.Port, nil
		}
	}

	return
}
