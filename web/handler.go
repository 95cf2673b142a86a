package web

import "go.uber.org/fx"

const HandlersGroupName = "layertrace.handlers"

type Handler interface {
	Handle(r Router)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(r Router)

func (f HandlerFunc) Handle(r Router) {
	f(r)
}

// AsHandler annotates a constructor so its result joins the handler group.
func AsHandler(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(Handler)),
		fx.ResultTags(`group:"`+HandlersGroupName+`"`),
	)
}

type setupHandlersIn struct {
	fx.In
	Router   Router
	Handlers []Handler `group:"layertrace.handlers"`
}

func SetupHandlers(in setupHandlersIn) {
	orderedHandlers := Prioritize(in.Handlers)
	for i := range orderedHandlers {
		orderedHandlers[i].Handle(in.Router)
	}
}
