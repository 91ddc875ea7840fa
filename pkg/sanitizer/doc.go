// Package sanitizer normalizes untrusted user input before it reaches
// business logic or storage.
//
// The identity layer depends on canonical email forms: uniqueness checks and
// account lookups must treat "John@Example.COM " and "john@example.com" as
// the same address, so every email entering the system goes through
// NormalizeEmail first. MaskEmail produces a log-safe rendering of an
// address for structured logging.
package sanitizer
