package events

// Event 待投递的事件
type Event struct {
	Name    string
	Payload any
}

// Queue 宿主输入队列
//
// 宿主（窗口系统、终端、网络）可以在任意 goroutine 上 Push，
// 帧循环在自己的 goroutine 上 Drain，保证处理函数与模块回调在同一线程执行。
type Queue struct {
	ch chan Event
}

// NewQueue 创建容量为 size 的队列
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{ch: make(chan Event, size)}
}

// Push 入队，队列满时丢弃并返回 false
func (q *Queue) Push(name string, payload any) bool {
	select {
	case q.ch <- Event{Name: name, Payload: payload}:
		return true
	default:
		return false
	}
}

// Drain 将当前已入队的事件全部发布到 bus，不阻塞，返回投递数量
func (q *Queue) Drain(bus *Bus) int {
	n := 0
	for {
		select {
		case ev := <-q.ch:
			bus.Emit(ev.Name, ev.Payload)
			n++
		default:
			return n
		}
	}
}
