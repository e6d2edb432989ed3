// Copyright (c) 2025 - The Atombus authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httputils provides HTTP surfaces for observing atombus traffic.
package httputils

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	ab "github.com/atombus/atombus"
	"github.com/atombus/atombus/codec/json"
	"github.com/atombus/atombus/publisher/local"
)

var upgrader = websocket.Upgrader{} // use default options

// subscriber forwards committed messages into a per-connection channel.
type subscriber struct {
	ch    chan msg
	codec ab.MessageCodec
}

type msg struct {
	topic   string
	message any
}

// HandleMessage implements the HandleMessage method of the atombus.Subscriber
// interface.
func (s *subscriber) HandleMessage(ctx context.Context, topic string, message any, deps ab.Deps) error {
	select {
	case s.ch <- msg{topic: topic, message: message}:
	default:
		return fmt.Errorf("missed message on topic: %s", topic)
	}
	return nil
}

// PublisherHandler is a websocket handler streaming the messages a staged
// publisher delivers at commit time, JSON encoded, to every request that has
// been upgraded to a websocket. Rolled back messages never appear on the
// stream.
func PublisherHandler(p *local.Publisher, m ab.TopicMatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		defer c.Close()

		s := &subscriber{
			ch:    make(chan msg, 10),
			codec: &json.MessageCodec{},
		}
		if err := p.AddSubscriber(m, s); err != nil {
			log.Print("subscribe:", err)
			return
		}

		for m := range s.ch {
			data, err := s.codec.MarshalMessage(r.Context(), m.topic, m.message)
			if err != nil {
				log.Println("marshal:", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Println("write:", err)
				break
			}
		}
	})
}
