package xfault_test

import (
	"errors"
	"fmt"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func ExampleClassifyError() {
	fmt.Println(xfault.ClassifyError(xfault.NewStatusError(503)))
	fmt.Println(xfault.ClassifyError(xfault.NewStatusError(429)))
	fmt.Println(xfault.ClassifyError(errors.New("request timeout")))
	fmt.Println(xfault.ClassifyError(errors.New("Failed to fetch")))
	fmt.Println(xfault.ClassifyError(errors.New("nil pointer")))
	fmt.Println(xfault.ClassifyValue("not an error"))
	// Output:
	// SERVER_ERROR
	// RATE_LIMIT
	// TIMEOUT
	// NETWORK
	// LOCAL_FAULT
	// UNKNOWN
}
