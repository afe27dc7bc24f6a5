// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build linux || windows

package core

// Registering the Vulkan driver is a side effect of importing
// driver/vk (see its init, which calls driver.Register); Open's
// loadDriver call has nothing to find unless some package does this
// import, so core itself — not a downstream binary — takes it on,
// matching how the teacher's engine/init_generic.go paired its own
// loadDriver with this same blank import.
import (
	_ "github.com/gviegas/compositor/driver/vk"
)
