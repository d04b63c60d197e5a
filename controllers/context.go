package controllers

import "github.com/xrkr80hd/EZApp/services"

// Shared service handles, wired once at startup.
var (
	registry  *services.Registry
	documents *services.Documents
	engine    *services.Backup
)

// Setup injects the store-backed services the handlers use.
func Setup(r *services.Registry, d *services.Documents, b *services.Backup) {
	registry = r
	documents = d
	engine = b
}
