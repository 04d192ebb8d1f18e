package migrate

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey marks a StorageError caused by inserting an already
// recorded ledger key. It signals a concurrent writer, not normal operation.
var ErrDuplicateKey = errors.New("ledger key already recorded")

// ConfigurationError represents an invalid engine setup detected at construction
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// StorageError represents a ledger DDL/DML failure
type StorageError struct {
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ScriptExecutionError represents a failure while running a script's SQL or
// executable code
type ScriptExecutionError struct {
	Path  string
	Cause error
}

func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("script %s failed: %v", e.Path, e.Cause)
}

func (e *ScriptExecutionError) Unwrap() error {
	return e.Cause
}

// LedgerInconsistencyError represents a script that executed but could not
// be recorded. The script's effects are not undone here; the caller must
// treat this as fatal for the batch so the snapshot restore undoes them.
type LedgerInconsistencyError struct {
	Path  string
	Cause error
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("script %s executed but could not be recorded: %v", e.Path, e.Cause)
}

func (e *LedgerInconsistencyError) Unwrap() error {
	return e.Cause
}

// BackupError represents a snapshot creation or restoration failure. When a
// restore fails after a batch error, SnapshotPath points at the retained
// snapshot file for manual recovery and the database must be assumed
// inconsistent.
type BackupError struct {
	Message      string
	Cause        error
	SnapshotPath string
}

func (e *BackupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BackupError) Unwrap() error {
	return e.Cause
}
