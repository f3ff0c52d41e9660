package config

// MergeSettings merges two Settings objects.
// Values from 'overlay' override values in 'base'.
// Hook groups and validators from overlay replace base entries for the
// same key; maps are merged key by key.
func MergeSettings(base, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	result := NewSettings()

	result.Hooks = mergeHookMaps(base.Hooks, overlay.Hooks)
	result.Env = mergeStringMaps(base.Env, overlay.Env)

	if len(overlay.Validators) > 0 {
		result.Validators = overlay.Validators
	} else {
		result.Validators = base.Validators
	}

	if len(overlay.ExitOnBlock) > 0 {
		result.ExitOnBlock = overlay.ExitOnBlock
	} else if len(base.ExitOnBlock) > 0 {
		result.ExitOnBlock = base.ExitOnBlock
	}

	return result
}

// mergeHookMaps merges hook maps; overlay entries replace base entries
// for the same event kind.
func mergeHookMaps(base, overlay map[string][]Hook) map[string][]Hook {
	result := make(map[string][]Hook, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}

// mergeStringMaps merges string maps; overlay wins on conflicts.
func mergeStringMaps(base, overlay map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}
