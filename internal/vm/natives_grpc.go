package vm

import (
	"context"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lumenlang/lumen/internal/object"
)

var grpcConnPointerType = &object.PointerType{
	Name: "grpc-conn",
	FreeFunc: func(ptr interface{}) {
		if conn, ok := ptr.(*grpc.ClientConn); ok {
			conn.Close()
		}
	},
}

var protoFilePointerType = &object.PointerType{Name: "proto-file"}

// registerNetModule builds the "net" module: dynamic gRPC client calls and
// standalone protobuf encode/decode, grounded on the teacher's
// builtins_grpc.go but re-targeted at this VM's Value/Pointer model
// instead of its own tree-walked Object hierarchy. A loaded .proto file's
// message/service descriptors are looked up by name across every file
// loaded into this module instance -- one small registry per module
// rather than the teacher's single process-wide map, so that two VM
// instances (or two fresh loads of the same proto in one VM) never
// collide.
func (vm *VM) registerNetModule() *object.Module {
	net := vm.NewModule(vm.InternString("net"))
	net.NeedsInit = false
	vm.modules["net"] = net

	reg := &protoRegistry{files: make(map[string]*desc.FileDescriptor)}

	def := func(name string, fn object.NativeFn) {
		nf := vm.NewNativeFunction(name, fn)
		net.Define(name, object.ObjVal(nf))
		net.Export(name)
	}

	def("grpc-connect", reg.nativeGrpcConnect)
	def("grpc-close", nativeGrpcClose)
	def("proto-load", reg.nativeProtoLoad)
	def("grpc-invoke", reg.nativeGrpcInvoke)
	def("proto-encode", reg.nativeProtoEncode)
	def("proto-decode", reg.nativeProtoDecode)

	return net
}

// protoRegistry tracks the file descriptors loaded by proto-load for one
// module's natives to search by message or service name, mirroring the
// teacher's protoRegistry map but scoped per registerNetModule call
// instead of held in a package-level var.
type protoRegistry struct {
	files map[string]*desc.FileDescriptor
}

func (r *protoRegistry) findMessage(name string) *desc.MessageDescriptor {
	for _, fd := range r.files {
		if md := fd.FindMessage(name); md != nil {
			return md
		}
	}
	return nil
}

func (r *protoRegistry) findMethod(service, method string) *desc.MethodDescriptor {
	for _, fd := range r.files {
		if sd := fd.FindService(service); sd != nil {
			if md := sd.FindMethodByName(method); md != nil {
				return md
			}
		}
	}
	return nil
}

func splitMethodPath(path string) (service, method string, ok bool) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}

// nativeGrpcConnect(target) -> Pointer wrapping a *grpc.ClientConn, dialed
// without transport security -- matching the teacher's own
// insecure.NewCredentials() default, since this binding has no surface
// for supplying TLS material.
func (r *protoRegistry) nativeGrpcConnect(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("grpc-connect expects a target address string.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("grpc-connect requires a VM host.")
	}
	target := args[0].Obj.(*object.String).Value
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return object.Value{}, host.RaiseError("grpc-connect: %s", err)
	}
	return object.ObjVal(vmHost.NewPointer(grpcConnPointerType, conn)), nil
}

func nativeGrpcClose(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindPointer) {
		return object.Value{}, host.RaiseError("grpc-close expects a connection.")
	}
	ptr := args[0].Obj.(*object.Pointer)
	if conn, ok := ptr.Ptr.(*grpc.ClientConn); ok {
		if err := conn.Close(); err != nil {
			return object.Value{}, host.RaiseError("grpc-close: %s", err)
		}
		ptr.Ptr = (*grpc.ClientConn)(nil)
	}
	return object.UnspecifiedVal(), nil
}

// nativeProtoLoad(path) -> parses a .proto file (and its dependencies,
// resolved relative to the current directory) and registers its message
// and service descriptors for proto-encode/proto-decode/grpc-invoke to
// find by name.
func (r *protoRegistry) nativeProtoLoad(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("proto-load expects a file path string.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("proto-load requires a VM host.")
	}
	path := args[0].Obj.(*object.String).Value
	parser := protoparse.Parser{ImportPaths: []string{"."}}
	fds, err := parser.ParseFiles(path)
	if err != nil {
		return object.Value{}, host.RaiseError("proto-load: %s", err)
	}
	for _, fd := range fds {
		r.files[fd.GetName()] = fd
	}
	return object.ObjVal(vmHost.NewPointer(protoFilePointerType, path)), nil
}

// nativeGrpcInvoke(conn, "package.Service/Method", request-alist) ->
// response-alist, a synchronous unary RPC call. Request and response
// bodies are association lists of (symbol . value) pairs keyed by proto
// field name, the same shape natives_yaml.go uses for mappings -- there's
// still no dedicated hash-table type in this language.
func (r *protoRegistry) nativeGrpcInvoke(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 3 || !args[0].Is(object.KindPointer) || !args[1].Is(object.KindString) {
		return object.Value{}, host.RaiseError("grpc-invoke expects a connection, a \"Service/Method\" string, and a request value.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("grpc-invoke requires a VM host.")
	}
	conn, ok := args[0].Obj.(*object.Pointer).Ptr.(*grpc.ClientConn)
	if !ok || conn == nil {
		return object.Value{}, host.RaiseError("grpc-invoke: connection is closed.")
	}
	methodPath := args[1].Obj.(*object.String).Value
	service, method, ok := splitMethodPath(methodPath)
	if !ok {
		return object.Value{}, host.RaiseError("grpc-invoke: method path must be \"package.Service/Method\".")
	}
	md := r.findMethod(service, method)
	if md == nil {
		return object.Value{}, host.RaiseError("grpc-invoke: method %q not found (did you proto-load it?).", methodPath)
	}

	reqMsg := dynamic.NewMessage(md.GetInputType())
	if err := vmHost.valueToDynamicMessage(args[2], reqMsg); err != nil {
		return object.Value{}, host.RaiseError("grpc-invoke: building request: %s", err)
	}
	respMsg := dynamic.NewMessage(md.GetOutputType())

	wirePath := "/" + methodPath
	if err := conn.Invoke(context.Background(), wirePath, reqMsg, respMsg); err != nil {
		return object.Value{}, host.RaiseError("grpc-invoke: %s", err)
	}
	return vmHost.dynamicMessageToValue(respMsg), nil
}

func (r *protoRegistry) nativeProtoEncode(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 2 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("proto-encode expects a message type name and a value.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("proto-encode requires a VM host.")
	}
	md := r.findMessage(args[0].Obj.(*object.String).Value)
	if md == nil {
		return object.Value{}, host.RaiseError("proto-encode: message type %q not found.", args[0].Obj.(*object.String).Value)
	}
	msg := dynamic.NewMessage(md)
	if err := vmHost.valueToDynamicMessage(args[1], msg); err != nil {
		return object.Value{}, host.RaiseError("proto-encode: %s", err)
	}
	bytes, err := msg.Marshal()
	if err != nil {
		return object.Value{}, host.RaiseError("proto-encode: %s", err)
	}
	items := make([]object.Value, len(bytes))
	for i, b := range bytes {
		items[i] = object.NumberVal(float64(b))
	}
	return object.SliceToList(items), nil
}

func (r *protoRegistry) nativeProtoDecode(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 2 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("proto-decode expects a message type name and a byte list.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("proto-decode requires a VM host.")
	}
	md := r.findMessage(args[0].Obj.(*object.String).Value)
	if md == nil {
		return object.Value{}, host.RaiseError("proto-decode: message type %q not found.", args[0].Obj.(*object.String).Value)
	}
	items, ok := object.ListToSlice(args[1])
	if !ok {
		return object.Value{}, host.RaiseError("proto-decode expects a proper list of byte values.")
	}
	raw := make([]byte, len(items))
	for i, v := range items {
		if !v.IsNumber() {
			return object.Value{}, host.RaiseError("proto-decode: byte list must contain numbers.")
		}
		raw[i] = byte(v.Num)
	}
	msg := dynamic.NewMessage(md)
	if err := msg.Unmarshal(raw); err != nil {
		return object.Value{}, host.RaiseError("proto-decode: %s", err)
	}
	return vmHost.dynamicMessageToValue(msg), nil
}

// valueToDynamicMessage populates msg's fields from an association list of
// (symbol . value) pairs, skipping any field the message descriptor
// doesn't declare -- matching the teacher's own "ignore unknown fields"
// policy in objectToDynamicMessage.
func (vm *VM) valueToDynamicMessage(v object.Value, msg *dynamic.Message) error {
	items, ok := object.ListToSlice(v)
	if !ok {
		return vm.RaiseError("expected an association list of (field . value) pairs.")
	}
	for _, item := range items {
		pair, ok := item.Obj.(*object.Cons)
		if !item.Is(object.KindCons) || !ok {
			continue
		}
		key, ok := pair.Car.Obj.(*object.Symbol)
		if !pair.Car.Is(object.KindSymbol) || !ok {
			continue
		}
		fd := msg.GetMessageDescriptor().FindFieldByName(key.Name.Value)
		if fd == nil {
			continue
		}
		if err := msg.TrySetField(fd, dynamicFieldValue(pair.Cdr)); err != nil {
			return err
		}
	}
	return nil
}

// dynamicFieldValue narrows a Value down to the Go primitive protoreflect
// expects for a scalar field; string/number/bool cover every proto
// scalar kind this language's own value model can express.
func dynamicFieldValue(v object.Value) interface{} {
	switch {
	case v.IsNumber():
		return v.Num
	case v.Kind == object.True:
		return true
	case v.Kind == object.False:
		return false
	case v.Is(object.KindString):
		return v.Obj.(*object.String).Value
	default:
		return object.Display(v)
	}
}

// dynamicMessageToValue renders a decoded message as an association list
// of (symbol . value) pairs, the inverse of valueToDynamicMessage.
func (vm *VM) dynamicMessageToValue(msg *dynamic.Message) object.Value {
	fields := msg.GetMessageDescriptor().GetFields()
	pairs := make([]object.Value, 0, len(fields))
	for _, fd := range fields {
		val := msg.GetField(fd)
		entry := vm.NewCons(object.ObjVal(vm.InternSymbol(fd.GetName())), protoValueToValue(vm, val))
		pairs = append(pairs, object.ObjVal(entry))
	}
	return object.SliceToList(pairs)
}

func protoValueToValue(vm *VM, val interface{}) object.Value {
	switch n := val.(type) {
	case nil:
		return object.EmptyVal()
	case bool:
		return object.BoolVal(n)
	case string:
		return object.ObjVal(vm.InternString(n))
	case []byte:
		items := make([]object.Value, len(n))
		for i, b := range n {
			items[i] = object.NumberVal(float64(b))
		}
		return object.SliceToList(items)
	case int32:
		return object.NumberVal(float64(n))
	case int64:
		return object.NumberVal(float64(n))
	case uint32:
		return object.NumberVal(float64(n))
	case uint64:
		return object.NumberVal(float64(n))
	case float32:
		return object.NumberVal(float64(n))
	case float64:
		return object.NumberVal(n)
	case []interface{}:
		items := make([]object.Value, len(n))
		for i, item := range n {
			items[i] = protoValueToValue(vm, item)
		}
		return object.SliceToList(items)
	default:
		return object.ObjVal(vm.InternString(object.Display(object.UnspecifiedVal())))
	}
}
