package menu

// Partition compiles item definitions into a Registry.
//
// Definitions without contexts are skipped. Each remaining definition
// contributes a "-page" item for its page-class contexts and an "-object"
// item for its object-class contexts, appended to its owner's renderer in
// definition order. The page item takes the normalized patterns as its
// document patterns and the object item takes them as its target
// patterns, unless the definition overrides that field; the other field
// is copied verbatim.
func Partition(local string, defs []ItemDefinition) *Registry {
	reg := NewRegistry(local)

	for _, def := range defs {
		if len(def.Contexts) == 0 {
			continue
		}

		page, object := SplitContexts(def.Contexts)
		patterns := NormalizePatterns(def.Patterns)
		rd := reg.renderer(def.Owner(local))

		if len(page) > 0 {
			item := common(def, ClassPage, page)
			item.DocumentURLPatterns = orDefault(def.DocumentURLPatterns, patterns)
			item.TargetURLPatterns = clone(def.TargetURLPatterns)
			rd.Items = append(rd.Items, item)
		}

		if len(object) > 0 {
			item := common(def, ClassObject, object)
			item.DocumentURLPatterns = clone(def.DocumentURLPatterns)
			item.TargetURLPatterns = orDefault(def.TargetURLPatterns, patterns)
			rd.Items = append(rd.Items, item)
		}
	}

	return reg
}

// common builds the fields shared by both classes of a definition.
func common(def ItemDefinition, class Class, contexts []ContextTag) RenderedItem {
	item := RenderedItem{
		ID:       def.ID + class.Suffix(),
		Title:    def.Title,
		Type:     def.Type,
		Checked:  def.Checked,
		Enabled:  def.Enabled,
		Contexts: contexts,
	}
	if len(def.Icons) > 0 {
		item.Icons = make(Icons, len(def.Icons))
		for size, path := range def.Icons {
			item.Icons[size] = path
		}
	}
	return item
}

func orDefault(override, patterns []string) []string {
	if override != nil {
		return clone(override)
	}
	return clone(patterns)
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
