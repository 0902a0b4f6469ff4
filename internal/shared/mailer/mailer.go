package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// =============================================================================
// Mailer — SMTP邮件通知客户端
// 审批指派、审批结果、修订请求等事件的异步通知出口。
// 发送失败只记录不中断业务流程，由调用方负责goroutine和日志
// =============================================================================

// Client SMTP客户端
type Client struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewClient 创建邮件客户端
func NewClient(host string, port int, username, password, from string) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send 发送纯文本邮件
func (c *Client) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", c.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}
	if err := smtp.SendMail(addr, auth, c.from, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

// SendApprovalAssigned 通知审批人有新的待审批报价单
func (c *Client) SendApprovalAssigned(to, quoteNumber string, level int) error {
	subject := fmt.Sprintf("【待审批】报价单 %s", quoteNumber)
	body := fmt.Sprintf("您有一条新的待审批报价单。\n\n报价单编号：%s\n审批层级：%d\n\n请及时登录系统处理。", quoteNumber, level)
	return c.Send([]string{to}, subject, body)
}

// SendDecisionResult 通知供应商报价单审批结果
func (c *Client) SendDecisionResult(to, quoteNumber, status string) error {
	subject := fmt.Sprintf("【审批结果】报价单 %s", quoteNumber)
	body := fmt.Sprintf("您提交的报价单审批状态已更新。\n\n报价单编号：%s\n当前状态：%s", quoteNumber, status)
	return c.Send([]string{to}, subject, body)
}

// SendRevisionRequested 通知供应商报价单被打回修订
func (c *Client) SendRevisionRequested(to, quoteNumber, reason string) error {
	subject := fmt.Sprintf("【修订请求】报价单 %s", quoteNumber)
	body := fmt.Sprintf("审批方请求您修订报价单。\n\n报价单编号：%s\n修订原因：%s\n\n请登录系统提交修订版本。", quoteNumber, reason)
	return c.Send([]string{to}, subject, body)
}

// SendPendingReminder 定时任务提醒审批人处理积压的审批
func (c *Client) SendPendingReminder(to string, count int) error {
	subject := "【提醒】您有待处理的报价单审批"
	body := fmt.Sprintf("您当前有 %d 条超过24小时未处理的审批，请及时登录系统处理。", count)
	return c.Send([]string{to}, subject, body)
}
