package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/pkg/logutils"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewStreamMgr)
}

// Subscriber is implemented by stores that can push change notifications.
// The returned function cancels the subscription.
type Subscriber interface {
	Subscribe(fn func([]model.Project)) func()
}

type StreamMgr struct {
	name     string
	store    repository.ProjectStore
	upgrader websocket.Upgrader
}

func NewStreamMgr(conf *RegisterConfig) Manager {
	return &StreamMgr{
		name:  "stream",
		store: conf.Store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

func (mgr *StreamMgr) GetName() string { return mgr.name }

func (mgr *StreamMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *StreamMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/projects/stream", mgr.Stream)
}

func (mgr *StreamMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type streamFrame struct {
	Type     string          `json:"type"`
	Projects []model.Project `json:"projects"`
}

// Stream godoc
//
//	@Summary		Live project snapshots over a websocket
//	@Description	Sends one snapshot frame on connect, then a frame after each change.
//	@Tags			Project
//	@Security		Bearer
//	@Success		101	"switching protocols"
//	@Router			/v1/projects/stream [get]
func (mgr *StreamMgr) Stream(c *gin.Context) {
	conn, err := mgr.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the failure response.
		logutils.Log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before the initial snapshot so a mutation racing the
	// handshake is not lost.
	frames := make(chan []model.Project, 1)
	if sub, ok := mgr.store.(Subscriber); ok {
		cancel := sub.Subscribe(func(projects []model.Project) {
			pushFrame(frames, projects)
		})
		defer cancel()
	}

	projects, err := mgr.store.Snapshot(c)
	if err != nil {
		logutils.Log.Errorf("stream snapshot failed: %v", err)
		return
	}
	if err := mgr.send(conn, projects); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case projects := <-frames:
			if err := mgr.send(conn, projects); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// pushFrame places the latest snapshot into the single-slot channel,
// replacing a stale frame when the client is slow. It never blocks: after
// the read loop exits nobody drains frames, and a racing callback may have
// refilled the slot between the drain and the send.
func pushFrame(frames chan []model.Project, projects []model.Project) {
	select {
	case frames <- projects:
	default:
		select {
		case <-frames:
		default:
		}
		select {
		case frames <- projects:
		default:
		}
	}
}

func (mgr *StreamMgr) send(conn *websocket.Conn, projects []model.Project) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(streamFrame{Type: "projects", Projects: projects}); err != nil {
		logutils.Log.Debugf("websocket write failed: %v", err)
		return err
	}
	return nil
}
