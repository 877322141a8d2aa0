// File: kernel/params.go
// Author: momentics <momentics@gmail.com>
//
// GetParameter/SetParameter/GetConfig/SetConfig implement spec.md
// §4.3.5: locate the port (then the config port, then kernel-level
// read-only aggregate indices) that manages idx, delegate the actual
// read/write to it, and apply slaving + emit PortSettingsChanged on a
// successful SetParameter.

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/port"
)

// SlavingApply mirrors one changed parameter from src onto dst,
// reporting the index that changed. Set by the concrete component;
// a nil SlavingApply means slaved ports never propagate (spec.md §4.2
// slaving is opt-in per component).
type SlavingApply func(src, dst *port.Port) (api.IndexType, bool)

// findOwner returns the port (regular or config) that manages idx, or
// nil if none does.
func (k *Kernel) findOwner(idx api.IndexType) *port.Port {
	for _, p := range k.Ports {
		if p.FindIndex(idx) {
			return p
		}
	}
	if k.ConfigPort != nil && k.ConfigPort.FindIndex(idx) {
		return k.ConfigPort
	}
	return nil
}

// GetParameter routes a GetParameter request (spec.md §4.3.5).
func (k *Kernel) GetParameter(idx api.IndexType) (any, api.ErrorType) {
	switch idx {
	case api.IndexParamAudioInit, api.IndexParamVideoInit, api.IndexParamImageInit, api.IndexParamOtherInit:
		return k.portCountByDomain(idx), api.ErrorNone
	}
	owner := k.findOwner(idx)
	if owner == nil {
		return nil, api.ErrorUnsupportedIndex
	}
	return owner.GetParameter(idx)
}

// SetParameter routes a SetParameter request, applying slaving and
// emitting PortSettingsChanged on success (spec.md §4.2, §4.3.5).
func (k *Kernel) SetParameter(portIndex int, idx api.IndexType, value any) api.ErrorType {
	owner := k.findOwner(idx)
	if owner == nil {
		return api.ErrorUnsupportedIndex
	}
	if errc := owner.SetParameter(idx, value); errc != api.ErrorNone {
		return errc
	}

	if k.SlavingApply != nil && (owner.MasterIndex >= 0 || owner.SlaveIndex >= 0) {
		pairedIdx := owner.SlaveIndex
		if pairedIdx < 0 {
			pairedIdx = owner.MasterIndex
		}
		if pairedIdx >= 0 && pairedIdx < len(k.Ports) {
			paired := k.Ports[pairedIdx]
			if changedIdx, ok := owner.ApplySlavingBehaviour(paired, k.SlavingApply); ok {
				if k.Events != nil {
					k.Events.IssueEvent(api.EventPortSettingsChanged, uint32(paired.Index), uint32(changedIdx), nil)
				}
			}
		}
	}
	return api.ErrorNone
}

// GetConfig routes a GetConfig request; identical lookup rules to
// GetParameter (spec.md §4.3.5).
func (k *Kernel) GetConfig(idx api.IndexType) (any, api.ErrorType) {
	if idx == api.IndexConfigMetadataItem {
		return k.Metadata(), api.ErrorNone
	}
	return k.GetParameter(idx)
}

// SetConfig routes a SetConfig request and, on success, forwards it to
// the processor via ConfigChange so it can react (spec.md §4.3.5,
// §4.4).
func (k *Kernel) SetConfig(portIndex int, idx api.IndexType, value any) api.ErrorType {
	if errc := k.SetParameter(portIndex, idx, value); errc != api.ErrorNone {
		return errc
	}
	if k.Proc != nil {
		return k.Proc.ConfigChange(portIndex, idx)
	}
	return api.ErrorNone
}

// GetExtensionIndex resolves a vendor extension name by asking each
// port in turn, then the config port (spec.md §6). Unknown names
// report UnsupportedIndex.
func (k *Kernel) GetExtensionIndex(name string) (api.IndexType, api.ErrorType) {
	for _, p := range k.Ports {
		if idx, ok := p.ExtensionIndex(name); ok {
			return idx, api.ErrorNone
		}
	}
	if k.ConfigPort != nil {
		if idx, ok := k.ConfigPort.ExtensionIndex(name); ok {
			return idx, api.ErrorNone
		}
	}
	return 0, api.ErrorUnsupportedIndex
}

func (k *Kernel) portCountByDomain(idx api.IndexType) int {
	var domain api.PortDomain
	switch idx {
	case api.IndexParamAudioInit:
		domain = api.DomainAudio
	case api.IndexParamVideoInit:
		domain = api.DomainVideo
	case api.IndexParamImageInit:
		domain = api.DomainImage
	default:
		domain = api.DomainOther
	}
	n := 0
	for _, p := range k.Ports {
		if p.Domain == domain {
			n++
		}
	}
	return n
}
