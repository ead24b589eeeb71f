package blog

// Find returns the category with id anywhere in the forest, or nil.
func Find(roots []*Category, id int64) *Category {
	for _, c := range roots {
		if c == nil {
			continue
		}
		if c.ID == id {
			return c
		}
		if found := Find(c.SubCategory, id); found != nil {
			return found
		}
	}
	return nil
}

// Path returns the chain of categories from a root down to id, inclusive.
// It is empty when id is not in the forest.
func Path(roots []*Category, id int64) []*Category {
	for _, c := range roots {
		if c == nil {
			continue
		}
		if c.ID == id {
			return []*Category{c}
		}
		if sub := Path(c.SubCategory, id); len(sub) > 0 {
			return append([]*Category{c}, sub...)
		}
	}
	return nil
}

// Flatten lists every category depth-first, parents before children.
func Flatten(roots []*Category) []*Category {
	var out []*Category
	var walk func([]*Category)
	walk = func(cs []*Category) {
		for _, c := range cs {
			if c == nil {
				continue
			}
			out = append(out, c)
			walk(c.SubCategory)
		}
	}
	walk(roots)
	return out
}

// Leaves lists categories without children, in tree order.
func Leaves(roots []*Category) []*Category {
	var out []*Category
	for _, c := range Flatten(roots) {
		if len(c.SubCategory) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies the forest.
func Clone(roots []*Category) []*Category {
	if roots == nil {
		return nil
	}
	out := make([]*Category, len(roots))
	for i, c := range roots {
		if c == nil {
			continue
		}
		cp := *c
		cp.SubCategory = Clone(c.SubCategory)
		out[i] = &cp
	}
	return out
}
