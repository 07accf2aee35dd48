package iscsi

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/wintarget/wintarget/internal/wt"
)

// CreateTarget creates the iSCSI target named targetName. When ensure
// is set, a target that already exists is not an error.
func (m *Manager) CreateTarget(targetName string, ensure bool) error {
	err := m.backend.CreateHost(targetName)
	if err == nil {
		return nil
	}
	if ensure && errors.Is(err, wt.ErrAlreadyExists) {
		klog.Infof("Ignored target creation error %q while ensuring export", err)
		return nil
	}
	return fmt.Errorf("failed to create iSCSI target %s: %w", targetName, err)
}

// RemoveTarget detaches every disk from the target and deletes it.
// A target that does not exist is not an error.
func (m *Manager) RemoveTarget(targetName string) error {
	if _, err := m.backend.QueryHost(targetName); err != nil {
		if errors.Is(err, wt.ErrNotFound) {
			klog.V(2).Infof("Skipping removal of target %s as it does not exist", targetName)
			return nil
		}
		return fmt.Errorf("failed to query iSCSI target %s: %w", targetName, err)
	}

	if err := m.backend.RemoveAllDisks(targetName); err != nil {
		return fmt.Errorf("failed to detach disks from target %s: %w", targetName, err)
	}
	if err := m.backend.DeleteHost(targetName); err != nil {
		return fmt.Errorf("failed to delete iSCSI target %s: %w", targetName, err)
	}
	return nil
}

// BindInitiator grants the initiator access to the target by its IQN.
func (m *Manager) BindInitiator(targetName, initiatorIQN string) error {
	if err := m.backend.AddIDMethod(targetName, wt.IDMethodIQN, initiatorIQN); err != nil {
		return fmt.Errorf("failed to bind initiator %s to target %s: %w", initiatorIQN, targetName, err)
	}
	return nil
}

// UnbindInitiator revokes an initiator binding created by
// BindInitiator. Unbinding an initiator that was never bound is an
// error.
func (m *Manager) UnbindInitiator(targetName, initiatorIQN string) error {
	if err := m.backend.DeleteIDMethod(targetName, wt.IDMethodIQN, initiatorIQN); err != nil {
		return fmt.Errorf("failed to unbind initiator %s from target %s: %w", initiatorIQN, targetName, err)
	}
	return nil
}
