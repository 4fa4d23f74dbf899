// Package textutil provides small text helpers for log output.
package textutil
