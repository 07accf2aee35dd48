package iscsi

import (
	"testing"

	"github.com/wintarget/wintarget/internal/wt"
	"github.com/wintarget/wintarget/internal/wt/wtfake"
)

func TestManager_CheckReachable(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *wtfake.Fake)
		wantErr bool
	}{
		{
			name:    "portal listening",
			wantErr: false,
		},
		{
			name: "portal not listening",
			setup: func(f *wtfake.Fake) {
				f.Portal.Listening = false
			},
			wantErr: true,
		},
		{
			name: "target service unreachable",
			setup: func(f *wtfake.Fake) {
				f.Unreachable = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := wtfake.New()
			if tt.setup != nil {
				tt.setup(f)
			}
			m := NewManager(f)

			err := m.CheckReachable()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckReachable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_HostConnectionInfo(t *testing.T) {
	const target = "iqn.2010-10.org.openstack:volume-1"

	tests := []struct {
		name         string
		setup        func(f *wtfake.Fake)
		targetName   string
		providerAuth string
		want         ConnectionProperties
		wantErr      bool
	}{
		{
			name: "without auth",
			setup: func(f *wtfake.Fake) {
				f.Portal = wt.Portal{Address: "10.0.0.5", Port: 3260, Listening: true}
				f.CreateHost(target)
			},
			targetName: target,
			want: ConnectionProperties{
				TargetPortal: "10.0.0.5:3260",
				TargetIQN:    target,
				TargetLun:    0,
				VolumeID:     "vol-id-1",
			},
		},
		{
			name: "with chap auth",
			setup: func(f *wtfake.Fake) {
				f.Portal = wt.Portal{Address: "10.0.0.5", Port: 3260, Listening: true}
				f.CreateHost(target)
			},
			targetName:   target,
			providerAuth: "CHAP chapuser chapsecret",
			want: ConnectionProperties{
				TargetPortal: "10.0.0.5:3260",
				TargetIQN:    target,
				TargetLun:    0,
				VolumeID:     "vol-id-1",
				AuthMethod:   "CHAP",
				AuthUsername: "chapuser",
				AuthPassword: "chapsecret",
			},
		},
		{
			name: "malformed auth",
			setup: func(f *wtfake.Fake) {
				f.CreateHost(target)
			},
			targetName:   target,
			providerAuth: "CHAP chapuser",
			wantErr:      true,
		},
		{
			name:       "missing target",
			targetName: target,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := wtfake.New()
			if tt.setup != nil {
				tt.setup(f)
			}
			m := NewManager(f)

			got, err := m.HostConnectionInfo(tt.targetName, "vol-id-1", tt.providerAuth)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HostConnectionInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("HostConnectionInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
