// Package services defines the error taxonomy shared by the content stores,
// the posting client, and the poster loop.
//
// Components tag failures with one of the exported sentinel markers through
// Wrap; the poster loop calls Classify to turn any error into a wait decision
// without inspecting error strings.
package services
