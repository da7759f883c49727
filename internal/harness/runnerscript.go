package harness

// runnerScript is the generated Node runner. It mirrors the state machine
// of this package: a context tree with computed effective failure, a
// destructively drained registration queue, and dual-format execution of
// every entry point with a flat failure summary at the end.
const runnerScript = `#!/usr/bin/env node
"use strict";

const { pathToFileURL } = require("url");

const STATUS_PENDING = {{.StatusPendingJS}};
const STATUS_OK = {{.StatusOKJS}};
const STATUS_FAIL = {{.StatusFailJS}};
const STATUS_IGNORED = {{.StatusIgnoredJS}};
const MARKER = {{.MarkerJS}};
const INDENT = {{.IndentJS}};

const entryPoints = {{.EntryPointsJSON}};

{{if .ShimRequireJSON}}const testInternals = require({{.ShimRequireJSON}});
const queue = testInternals.testDefinitions;
{{else}}const queue = [];
globalThis.RuntimeTest = {
  register(def) {
    queue.push(def);
  },
};
{{end}}
// Drain returns and removes exactly the definitions present at call time;
// definitions registered during a drain pass are seen by the next drain.
function drain() {
  return queue.splice(0, queue.length);
}

class TestContext {
  constructor(name) {
    this.name = name;
    this.status = STATUS_PENDING;
    this.error = undefined;
    this.children = [];
  }

  hasFailingChild() {
    return this.children.some(
      (child) =>
        child.status === STATUS_FAIL ||
        child.status === STATUS_PENDING ||
        child.hasFailingChild()
    );
  }

  effective() {
    if (this.status === STATUS_OK && this.hasFailingChild()) {
      return STATUS_FAIL;
    }
    return this.status;
  }

  errors() {
    const out = [];
    if (this.error !== undefined) {
      out.push(this.error);
    }
    for (const child of this.children) {
      out.push(...child.errors());
    }
    return out;
  }
}

function stringify(err) {
  if (err instanceof Error && err.stack) {
    return err.stack;
  }
  return String(err);
}

function render(context, depth) {
  const indent = INDENT.repeat(depth);
  process.stdout.write(
    indent + context.name + " " + MARKER + " " + context.effective() + "\n"
  );
  if (context.error !== undefined) {
    for (const line of String(context.error).split("\n")) {
      process.stdout.write(indent + INDENT + line + "\n");
    }
  }
  for (const child of context.children) {
    render(child, depth + 1);
  }
}

function makeTester(context) {
  return {
    async step(name, fn) {
      const child = new TestContext(name);
      context.children.push(child);
      try {
        await fn(makeTester(child));
        child.status = STATUS_OK;
      } catch (err) {
        child.status = STATUS_FAIL;
        child.error = stringify(err);
      }
      return child.effective() !== STATUS_FAIL;
    },
  };
}

const failures = [];

async function runDefinition(def, format) {
  const context = new TestContext(def.name);

  if (def.ignore) {
    context.status = STATUS_IGNORED;
    render(context, 0);
    return;
  }

  try {
    await def.fn(makeTester(context));
    context.status = STATUS_OK;
  } catch (err) {
    context.status = STATUS_FAIL;
    context.error = stringify(err);
  }

  render(context, 0);

  if (context.effective() === STATUS_FAIL) {
    let errors = context.errors();
    if (errors.length === 0) {
      errors = ["a step failed or never completed"];
    }
    failures.push({ name: def.name + " (" + format + ")", errors });
  }
}

async function main() {
  for (const entry of entryPoints) {
    for (const format of ["cjs", "esm"]) {
      const modulePath = entry[format];
      process.stdout.write("\nrunning tests in " + modulePath + "\n\n");
      if (format === "cjs") {
        require(modulePath);
      } else {
        await import(pathToFileURL(modulePath).href);
      }
      for (const def of drain()) {
        await runDefinition(def, format);
      }
    }
  }

  if (failures.length > 0) {
    process.stdout.write("\nFAILURES\n\n");
    for (const failure of failures) {
      process.stdout.write(failure.name + "\n");
      for (const error of failure.errors) {
        for (const line of String(error).split("\n")) {
          process.stdout.write(INDENT + line + "\n");
        }
      }
    }
    process.exit(1);
  }
  process.exit(0);
}

main().catch((err) => {
  process.stderr.write(stringify(err) + "\n");
  process.exit(1);
});
`
