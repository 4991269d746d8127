package types

// InvokeRequest is one call across the boundary:
// invoke(module, function, args, kwargs).
type InvokeRequest struct {
	Module   string                 `json:"module" binding:"required"`
	Function string                 `json:"function" binding:"required"`
	Args     []interface{}          `json:"args"`
	Kwargs   map[string]interface{} `json:"kwargs"`
	Context  *Context               `json:"context,omitempty"`
}

// ToolID returns "module.function".
func (r InvokeRequest) ToolID() string {
	return r.Module + "." + r.Function
}
