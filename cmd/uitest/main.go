// Binary uitest runs the registration UI suite against a remote Selenium
// grid and offers helpers to inspect its configuration and test data.
package main

import (
	"os"

	"github.com/golang/glog"
)

func main() {
	defer glog.Flush()
	if err := newRootCmd().Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}
