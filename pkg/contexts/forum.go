package contexts

import (
    "fmt"
    "strconv"
    "strings"
    "unicode/utf8"

    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/message"
    "meshbbs/pkg/session"
    "meshbbs/pkg/store"
)

const (
    forumCommands   = "[C]reate [N]ext [P]rev [Q]uit [#]"
    topicCommands   = "[M]ore [R]eply [N]ext [P]rev [B]ack [#]"
    composeCommands = "[!C]ancel [.]End Reply"
    stampLayout     = "01-02-06 03:04"
    maxTitleLen     = 64
    maxReplyLen     = 2048
)

type forumState int

const (
    forumBrowsing forumState = iota
    forumNaming
)

// forum lists topics, newest activity first, in pages sized to fit one
// radio payload together with the command footer.
type forum struct {
    session.Base
    env    *Env
    state  forumState
    topics []store.Topic
    pages  []string
    page   int
}

func newForum(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &forum{Base: session.NewBase(s, "Bulletin Board", "", forumCommands), env: env}
}

func (c *forum) Start() {
    c.state = forumBrowsing
    if err := c.refresh(); err != nil {
        c.S.Logger().Error("list topics", zap.Error(err))
        c.S.SendError("Unable to load topics!")
        _ = c.S.RevertContext(1)
        return
    }
    c.show()
}

func (c *forum) refresh() error {
    ctx, cancel := c.env.op()
    defer cancel()
    topics, err := c.env.Store.ListTopics(ctx)
    if err != nil { return err }
    c.topics = topics
    lines := make([]string, len(topics))
    for i, t := range topics {
        lines[i] = fmt.Sprintf("[%d] (%s) %s", i+1, t.LastModified.Local().Format(stampLayout), t.Title)
    }
    c.pages = packLines(lines, c.capacity())
    if c.page >= len(c.pages) { c.page = max(len(c.pages)-1, 0) }
    return nil
}

// capacity is the body room left once header, borders and a worst-case
// footer are accounted for.
func (c *forum) capacity() int {
    l := c.S.Limits()
    shell := c.Msg
    shell.Body = ""
    shell.Footer = forumCommands + "\nPage 999/999"
    return l.Budget() - shell.Size() - 1
}

func (c *forum) show() {
    m := c.Msg
    m.Body = "<Crickets chirping>"
    if len(c.pages) > 0 { m.Body = c.pages[c.page] }
    m.Footer = fmt.Sprintf("%s\nPage %d/%d", forumCommands, c.page+1, max(len(c.pages), 1))
    c.S.SendOnePage(m)
}

func (c *forum) Receive(input string) {
    in := strings.TrimSpace(input)
    if in == "" { return }
    if c.state == forumNaming {
        c.createTopic(in)
        return
    }
    switch strings.ToLower(in) {
    case "q":
        _ = c.S.RevertContext(1)
    case "c":
        c.state = forumNaming
        c.S.Send(c.S.Style().New(c.Msg.Header, "Enter topic name ([!C]ancel):", ""))
    case "n":
        if c.page >= len(c.pages)-1 {
            c.S.SendError("No pages left!")
            return
        }
        c.page++
        c.show()
    case "p":
        if c.page <= 0 {
            c.S.SendError("No pages left!")
            return
        }
        c.page--
        c.show()
    default:
        n, err := strconv.Atoi(in)
        if err != nil {
            c.S.SendError("Invalid option!")
            return
        }
        if n < 1 || n > len(c.topics) {
            c.S.SendError("Invalid topic number!")
            return
        }
        c.S.ChangeContext(newTopicView(c.env, c.S, c.topics[n-1]))
    }
}

func (c *forum) createTopic(title string) {
    if strings.EqualFold(title, "!c") {
        c.state = forumBrowsing
        c.show()
        return
    }
    if utf8.RuneCountInString(title) > maxTitleLen {
        c.S.SendError(fmt.Sprintf("Topic name longer than %d characters!", maxTitleLen))
        return
    }
    ctx, cancel := c.env.op()
    defer cancel()
    t, err := c.env.Store.CreateTopic(ctx, title, c.env.Clock.Now())
    if err != nil {
        c.S.Logger().Error("create topic", zap.Error(err))
        c.S.SendError("Unable to create topic!")
        return
    }
    c.S.Logger().Info("topic created", zap.String("topic", t.ID), zap.String("by", displayName(c.S)))
    c.S.Send(c.S.Style().New(c.Msg.Header, "Topic created", ""))
    c.state = forumBrowsing
    c.page = 0
    if err := c.refresh(); err != nil {
        c.S.SendError("Unable to load topics!")
        return
    }
    c.show()
}

// packLines joins lines greedily into pages of at most capacity bytes. A
// line longer than capacity gets a page of its own.
func packLines(lines []string, capacity int) []string {
    var pages []string
    var cur strings.Builder
    for _, ln := range lines {
        if cur.Len() > 0 && cur.Len()+1+len(ln) > capacity {
            pages = append(pages, cur.String())
            cur.Reset()
        }
        if cur.Len() > 0 { cur.WriteByte('\n') }
        cur.WriteString(ln)
    }
    if cur.Len() > 0 { pages = append(pages, cur.String()) }
    return pages
}

// topicView shows one post at a time, newest first.
type topicView struct {
    session.Base
    env   *Env
    topic store.Topic
    posts []store.Post
    idx   int
}

func newTopicView(env *Env, s *session.Session, t store.Topic) *topicView {
    return &topicView{
        Base:  session.NewBase(s, "BBS - "+clip(t.Title, 15), "", topicCommands),
        env:   env,
        topic: t,
    }
}

// clip shortens s to n runes, marking the cut.
func clip(s string, n int) string {
    if utf8.RuneCountInString(s) <= n { return s }
    return string([]rune(s)[:n]) + "..."
}

func (c *topicView) Start() {
    ctx, cancel := c.env.op()
    defer cancel()
    posts, err := c.env.Store.ListPosts(ctx, c.topic.ID)
    if err != nil {
        c.S.Logger().Error("list posts", zap.String("topic", c.topic.ID), zap.Error(err))
        c.S.SendError("Unable to load posts!")
        _ = c.S.RevertContext(1)
        return
    }
    c.posts = posts
    if len(posts) == 0 {
        m := c.Msg
        m.Body = "This topic is empty."
        c.S.SendOnePage(m)
        return
    }
    if c.idx >= len(posts) { c.idx = len(posts) - 1 }
    c.showPost(false)
}

func formatPost(p store.Post) string {
    return fmt.Sprintf("<Posted by %s on %s>\n%s", p.Author, p.Created.Local().Format(stampLayout), p.Content)
}

func (c *topicView) render() message.Message {
    m := c.Msg
    m.Body = formatPost(c.posts[c.idx])
    m.Footer = fmt.Sprintf("%s\nPost %d/%d", topicCommands, c.idx+1, len(c.posts))
    return m
}

// showPost sends the current post cut to one unit, or in full. A full post
// that fits once the command footer is dropped goes out without the pager.
func (c *topicView) showPost(full bool) {
    if full {
        m := c.render()
        bare := m
        bare.Footer = ""
        if bare.Size() <= c.S.Limits().PayloadCeiling { m = bare }
        c.S.Send(m)
        return
    }
    c.S.SendOnePage(c.render())
}

func (c *topicView) Receive(input string) {
    in := strings.TrimSpace(input)
    if in == "" { return }
    switch strings.ToLower(in) {
    case "b":
        _ = c.S.RevertContext(1)
    case "r":
        c.S.ChangeContext(newComposer(c.env, c.S, c.topic))
    case "n":
        if c.idx >= len(c.posts)-1 {
            c.S.SendError("No more posts in this topic!")
            return
        }
        c.idx++
        c.showPost(false)
    case "p":
        if c.idx <= 0 || len(c.posts) == 0 {
            c.S.SendError("No more posts in this topic!")
            return
        }
        c.idx--
        c.showPost(false)
    case "m":
        if len(c.posts) == 0 {
            c.S.SendError("This topic is empty.")
            return
        }
        c.showPost(true)
    default:
        n, err := strconv.Atoi(in)
        if err != nil {
            c.S.SendError("Invalid option!")
            return
        }
        if n < 1 || n > len(c.posts) {
            c.S.SendError("Invalid post number!")
            return
        }
        c.idx = n - 1
        c.showPost(false)
    }
}

// composer collects reply lines until "." and posts them. Either way it
// returns to the topic list.
type composer struct {
    session.Base
    env   *Env
    topic store.Topic
    lines []string
    size  int
}

func newComposer(env *Env, s *session.Session, t store.Topic) *composer {
    return &composer{
        Base:  session.NewBase(s, "Compose reply", "Replying to: "+clip(t.Title, 30), composeCommands),
        env:   env,
        topic: t,
    }
}

func (c *composer) Receive(input string) {
    in := strings.TrimSpace(input)
    if in == "" { return }
    switch {
    case strings.EqualFold(in, "!c"):
        _ = c.S.RevertContext(1)
    case in == ".":
        c.post()
    default:
        if c.size+len(in) > maxReplyLen {
            c.S.SendError("Reply too long!")
            return
        }
        c.lines = append(c.lines, in)
        c.size += len(in) + 1
    }
}

func (c *composer) post() {
    if len(c.lines) == 0 {
        c.S.SendError("Reply is empty!")
        return
    }
    ctx, cancel := c.env.op()
    defer cancel()
    _, err := c.env.Store.AppendPost(ctx, c.topic.ID, displayName(c.S), strings.Join(c.lines, "\n"), c.env.Clock.Now())
    if err != nil {
        c.S.Logger().Error("append post", zap.String("topic", c.topic.ID), zap.Error(err))
        c.S.SendError("Problem adding reply to database!")
    } else {
        c.S.Send(c.S.Style().New(c.Msg.Header, "Reply posted to topic!", ""))
    }
    if err := c.S.RevertContext(2); err != nil { _ = c.S.RevertContext(1) }
}
