package tasks

// DefaultRegistry registers the built-in tasks.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, task := range []*Task{cleanTask(), statsTask(), lintTask()} {
		if err := r.Register(task); err != nil {
			return nil, err
		}
	}
	return r, nil
}
