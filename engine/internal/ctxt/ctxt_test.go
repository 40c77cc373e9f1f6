// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package ctxt

import (
	"testing"

	"github.com/gviegas/retained/driver/headless"
)

func TestLoad(t *testing.T) {
	defer Unload()
	if _, err := Load("no such driver"); err != errNoDriver {
		t.Fatalf("Load:\nhave %v\nwant %v", err, errNoDriver)
	}
	if drv != nil {
		t.Fatal("Load: unexpected non-nil drv after failure")
	}
	u, err := Load("HeadLess")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if drv == nil || drv.Name() != "headless" {
		t.Fatal("Load: drv not set")
	}
	if u.Driver() != drv {
		t.Fatal("Load: gpu not opened from drv")
	}
	if u.Caps() != headless.DefaultCaps() {
		t.Fatal("Load: unexpected caps value")
	}
	// Empty name considers every driver.
	if _, err = Load(""); err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	Unload()
	if drv != nil {
		t.Fatal("Unload: drv not cleared")
	}
}
