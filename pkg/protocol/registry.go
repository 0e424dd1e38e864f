package protocol

// DecodeFunc decodes a field map into a Frame, adding every key it
// consumes to used.
type DecodeFunc func(fm FieldMap, used KeySet) (Frame, error)

// FrameRegistry maps frame types to decoders.
// It is populated at process start and read-only afterwards.
type FrameRegistry struct {
	decoders map[FrameType]DecodeFunc
}

// NewFrameRegistry creates an empty FrameRegistry.
func NewFrameRegistry() *FrameRegistry {
	return &FrameRegistry{decoders: make(map[FrameType]DecodeFunc)}
}

// Put registers the decoder for a frame type.
func (r *FrameRegistry) Put(t FrameType, fn DecodeFunc) error {
	if !t.Valid() {
		return &UnknownFrameTypeError{Type: t}
	}
	if _, exist := r.decoders[t]; exist {
		return &RegistrationConflictError{Registry: "frame", Key: string(t)}
	}
	r.decoders[t] = fn
	return nil
}

// MustPut is Put which panics on error.
func (r *FrameRegistry) MustPut(t FrameType, fn DecodeFunc) {
	if err := r.Put(t, fn); err != nil {
		panic(err)
	}
}

// Get returns the decoder for a frame type, or nil.
func (r *FrameRegistry) Get(t FrameType) DecodeFunc {
	return r.decoders[t]
}

// CommandDecodeFunc builds a specialized command from the fields common to
// all command responses.
type CommandDecodeFunc func(base BaseCommand) (Command, error)

// CommandRegistry maps command names to specialized decoders.
// It is populated at process start and read-only afterwards.
type CommandRegistry struct {
	decoders map[CommandName]CommandDecodeFunc
}

// NewCommandRegistry creates an empty CommandRegistry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{decoders: make(map[CommandName]CommandDecodeFunc)}
}

// Put registers the decoder for a command name.
func (r *CommandRegistry) Put(name CommandName, fn CommandDecodeFunc) error {
	if !name.Valid() {
		return &UnknownCommandError{Name: string(name)}
	}
	if _, exist := r.decoders[name]; exist {
		return &RegistrationConflictError{Registry: "command", Key: string(name)}
	}
	r.decoders[name] = fn
	return nil
}

// MustPut is Put which panics on error.
func (r *CommandRegistry) MustPut(name CommandName, fn CommandDecodeFunc) {
	if err := r.Put(name, fn); err != nil {
		panic(err)
	}
}

// Get returns the decoder for a command name, or nil.
func (r *CommandRegistry) Get(name CommandName) CommandDecodeFunc {
	return r.decoders[name]
}

// Process-wide registries.
var (
	Frames   = NewFrameRegistry()
	Commands = NewCommandRegistry()
)

func mustRegisterCommands(fn CommandDecodeFunc, names ...CommandName) {
	for _, name := range names {
		Commands.MustPut(name, fn)
	}
}
